package get_available_slots

import (
	"context"
	"time"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetActiveBySalonAndDate(ctx context.Context, salonID int64, date time.Time) ([]*domain.Booking, error)
}

// CatalogServiceClient интерфейс клиента CatalogService
type CatalogServiceClient interface {
	GetSalon(ctx context.Context, salonID int64) (*catalogservice.Salon, error)
	GetService(ctx context.Context, salonID, serviceID int64) (*catalogservice.Service, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
