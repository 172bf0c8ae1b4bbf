package cancel_booking

import (
	"context"

	"github.com/glowly/booking-service/internal/service/bookings/models"
)

type BookingService interface {
	CancelByCustomer(ctx context.Context, userID, bookingID int64) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
