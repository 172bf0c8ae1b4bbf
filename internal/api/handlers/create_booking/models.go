package create_booking

import (
	"time"

	"github.com/glowly/booking-service/internal/domain"
	createBooking "github.com/glowly/booking-service/internal/usecase/create_booking"
	"github.com/glowly/booking-service/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	SalonID     int64  `json:"salonId"`
	ServiceID   int64  `json:"serviceId"`
	BookingDate string `json:"bookingDate"` // "2025-06-09"
	StartTime   string `json:"startTime"`   // "14:00"

	CustomerName        string `json:"customerName"`
	CustomerPhone       string `json:"customerPhone"`
	CustomerEmail       string `json:"customerEmail,omitempty"`
	CustomerCountryCode string `json:"customerCountryCode,omitempty"`

	CustomerRequest *string `json:"customerRequest,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) (*createBooking.Request, error) {
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		UserID:              userID,
		SalonID:             r.SalonID,
		ServiceID:           r.ServiceID,
		Date:                bookingDate,
		StartTime:           startTime,
		CustomerName:        r.CustomerName,
		CustomerPhone:       r.CustomerPhone,
		CustomerEmail:       r.CustomerEmail,
		CustomerCountryCode: r.CustomerCountryCode,
		CustomerRequest:     r.CustomerRequest,
	}, nil
}
