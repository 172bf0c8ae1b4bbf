package domain

import (
	"fmt"
	"time"

	"github.com/glowly/booking-service/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusDraft               BookingStatus = "draft"
	StatusRequested           BookingStatus = "requested"
	StatusDepositPaid         BookingStatus = "deposit_paid"
	StatusWaitingConfirmation BookingStatus = "waiting_confirmation"
	StatusConfirmed           BookingStatus = "confirmed"
	StatusRejected            BookingStatus = "rejected"
	StatusRefundPending       BookingStatus = "refund_pending"
	StatusRefunded            BookingStatus = "refunded"
	StatusCompleted           BookingStatus = "completed"
	StatusNoShow              BookingStatus = "no_show"
	StatusCancelledByCustomer BookingStatus = "cancelled_by_customer"
)

// TransitionEvent represents an event that moves a booking between statuses
type TransitionEvent string

const (
	EventApprove          TransitionEvent = "approve"
	EventReject           TransitionEvent = "reject"
	EventTimeout          TransitionEvent = "timeout"
	EventRefundSettled    TransitionEvent = "refund_settled"
	EventComplete         TransitionEvent = "complete"
	EventNoShow           TransitionEvent = "no_show"
	EventCancelByCustomer TransitionEvent = "cancel_by_customer"
)

// transitions таблица допустимых переходов статусов
// Любой переход вне таблицы - ошибка, статус никогда не меняется в обход неё
var transitions = map[BookingStatus]map[TransitionEvent]BookingStatus{
	StatusWaitingConfirmation: {
		EventApprove: StatusConfirmed,
		EventReject:  StatusRefundPending,
		EventTimeout: StatusRefundPending,
	},
	StatusRefundPending: {
		EventRefundSettled: StatusRefunded,
	},
	StatusConfirmed: {
		EventComplete:         StatusCompleted,
		EventNoShow:           StatusNoShow,
		EventCancelByCustomer: StatusCancelledByCustomer,
	},
}

// NextStatus returns the status a booking moves to when event is applied.
// Returns ErrInvalidTransition for any pair outside the transition table.
func NextStatus(from BookingStatus, event TransitionEvent) (BookingStatus, error) {
	if events, ok := transitions[from]; ok {
		if to, ok := events[event]; ok {
			return to, nil
		}
	}
	return "", fmt.Errorf("%w: cannot apply event %q in status %q", ErrInvalidTransition, event, from)
}

// IsTerminal returns true if no transition is defined out of the status
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusRefunded, StatusCompleted, StatusNoShow, StatusCancelledByCustomer:
		return true
	}
	return false
}

// ParseBookingStatus validates a raw status string against the closed enumeration.
// Unknown values are always an error at the boundary, never a fallback.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case StatusDraft, StatusRequested, StatusDepositPaid, StatusWaitingConfirmation,
		StatusConfirmed, StatusRejected, StatusRefundPending, StatusRefunded,
		StatusCompleted, StatusNoShow, StatusCancelledByCustomer:
		return BookingStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Booking represents a salon appointment request in the system
type Booking struct {
	ID        int64
	SalonID   int64
	ServiceID int64

	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int // copied from the service at creation, frozen afterwards

	// Money in currency minor units
	TotalPrice      int64
	DepositAmount   int64
	RemainingAmount int64

	Status BookingStatus

	// Customer contact snapshot captured at creation, not a live profile reference
	CustomerID          int64
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	CustomerCountryCode string

	CustomerRequest *string
	RejectionReason *string // present only on the rejection/timeout path

	// PaymentID id захваченного депозита в платежном шлюзе
	PaymentID string

	CreatedAt     time.Time
	UpdatedAt     time.Time
	DepositPaidAt *time.Time
	ConfirmedAt   *time.Time
	RejectedAt    *time.Time
	CompletedAt   *time.Time
}

// IsActive returns true if the booking occupies its time slot
// (only active bookings count for availability)
func (b *Booking) IsActive() bool {
	return b.Status == StatusWaitingConfirmation || b.Status == StatusConfirmed
}

// ApprovalDeadline returns the instant the provider approval window closes
// Derived from CreatedAt, so it survives process restarts unchanged
func (b *Booking) ApprovalDeadline() time.Time {
	return b.CreatedAt.Add(ApprovalTTL)
}

// TimeRemaining returns how long the provider still has to approve, floored at zero
func (b *Booking) TimeRemaining(now time.Time) time.Duration {
	remaining := b.ApprovalDeadline().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsUrgent returns true if less than UrgencyThreshold remains before the deadline
func (b *Booking) IsUrgent(now time.Time) bool {
	return b.Status == StatusWaitingConfirmation && b.TimeRemaining(now) < UrgencyThreshold
}

// IsExpired returns true if the approval deadline has passed
func (b *Booking) IsExpired(now time.Time) bool {
	return !now.Before(b.ApprovalDeadline())
}

// BookingsFilter фильтр для получения списка бронирований
type BookingsFilter struct {
	SalonID    *int64        // Фильтр по салону (опционально)
	CustomerID *int64        // Фильтр по клиенту (опционально)
	Status    *BookingStatus // Фильтр по статусу (опционально)
	StartDate *time.Time     // Начало периода (опционально)
	EndDate   *time.Time     // Конец периода (опционально)
}
