package models

import (
	"time"

	"github.com/glowly/booking-service/internal/domain"
)

// Request модели

// ListBookingsRequest запрос на получение списка бронирований
// Без SalonID возвращаются бронирования самого вызывающего
type ListBookingsRequest struct {
	UserID    int64      `json:"userId"`
	SalonID   *int64     `json:"salonId,omitempty"`
	Status    *string    `json:"status,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// RejectBookingRequest запрос на отклонение бронирования
type RejectBookingRequest struct {
	UserID int64   `json:"userId"`
	Reason *string `json:"reason,omitempty"`
}

// Response модели

// BookingResponse бронирование в ответе сервиса
type BookingResponse struct {
	ID        int64 `json:"id"`
	SalonID   int64 `json:"salonId"`
	ServiceID int64 `json:"serviceId"`

	BookingDate     string `json:"bookingDate"`
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`

	TotalPrice      int64 `json:"totalPrice"`
	DepositAmount   int64 `json:"depositAmount"`
	RemainingAmount int64 `json:"remainingAmount"`

	Status string `json:"status"`

	CustomerID          int64  `json:"customerId"`
	CustomerName        string `json:"customerName"`
	CustomerPhone       string `json:"customerPhone"`
	CustomerEmail       string `json:"customerEmail,omitempty"`
	CustomerCountryCode string `json:"customerCountryCode,omitempty"`

	CustomerRequest *string `json:"customerRequest,omitempty"`
	RejectionReason *string `json:"rejectionReason,omitempty"`

	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
	DepositPaidAt *string `json:"depositPaidAt,omitempty"`
	ConfirmedAt   *string `json:"confirmedAt,omitempty"`
	RejectedAt    *string `json:"rejectedAt,omitempty"`
	CompletedAt   *string `json:"completedAt,omitempty"`

	// Поля дедлайна подтверждения - только для статуса waiting_confirmation
	ApprovalDeadline     *string `json:"approvalDeadline,omitempty"`
	TimeRemainingSeconds *int64  `json:"timeRemainingSeconds,omitempty"`
	Urgent               *bool   `json:"urgent,omitempty"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Total    int                `json:"total"`
}

// FromDomainBooking конвертирует domain.Booking в response-модель
// now нужен для вычисления производных полей дедлайна подтверждения
func FromDomainBooking(b *domain.Booking, now time.Time) *BookingResponse {
	resp := &BookingResponse{
		ID:                  b.ID,
		SalonID:             b.SalonID,
		ServiceID:           b.ServiceID,
		BookingDate:         b.BookingDate.Format(domain.DateFormat),
		StartTime:           b.StartTime.String(),
		DurationMinutes:     b.DurationMinutes,
		TotalPrice:          b.TotalPrice,
		DepositAmount:       b.DepositAmount,
		RemainingAmount:     b.RemainingAmount,
		Status:              string(b.Status),
		CustomerID:          b.CustomerID,
		CustomerName:        b.CustomerName,
		CustomerPhone:       b.CustomerPhone,
		CustomerEmail:       b.CustomerEmail,
		CustomerCountryCode: b.CustomerCountryCode,
		CustomerRequest:     b.CustomerRequest,
		RejectionReason:     b.RejectionReason,
		CreatedAt:           b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           b.UpdatedAt.Format(time.RFC3339),
		DepositPaidAt:       formatTimePtr(b.DepositPaidAt),
		ConfirmedAt:         formatTimePtr(b.ConfirmedAt),
		RejectedAt:          formatTimePtr(b.RejectedAt),
		CompletedAt:         formatTimePtr(b.CompletedAt),
	}

	if b.Status == domain.StatusWaitingConfirmation {
		deadline := b.ApprovalDeadline().Format(time.RFC3339)
		remaining := int64(b.TimeRemaining(now).Seconds())
		urgent := b.IsUrgent(now)

		resp.ApprovalDeadline = &deadline
		resp.TimeRemainingSeconds = &remaining
		resp.Urgent = &urgent
	}

	return resp
}

// FromDomainBookingList конвертирует список бронирований
func FromDomainBookingList(bookings []*domain.Booking, now time.Time) *BookingListResponse {
	result := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		result[i] = FromDomainBooking(b, now)
	}
	return &BookingListResponse{
		Bookings: result,
		Total:    len(result),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
