package bookings

import (
	"context"
	"time"

	"github.com/glowly/booking-service/internal/domain"
	bookingRepo "github.com/glowly/booking-service/internal/infra/storage/booking"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatusFrom(ctx context.Context, id int64, from, to domain.BookingStatus, upd bookingRepo.StatusUpdate) error
}

// SettlementService интерфейс учета движения депозита
type SettlementService interface {
	Refund(ctx context.Context, booking *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error)
	Payout(ctx context.Context, booking *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error)
}

// CatalogServiceClient интерфейс клиента каталога (проверка прав менеджера салона)
type CatalogServiceClient interface {
	GetSalon(ctx context.Context, salonID int64) (*catalogservice.Salon, error)
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
