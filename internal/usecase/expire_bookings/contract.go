package expire_bookings

import (
	"context"
	"time"

	"github.com/glowly/booking-service/internal/domain"
	bookingRepo "github.com/glowly/booking-service/internal/infra/storage/booking"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListExpiredWaiting(ctx context.Context, now time.Time) ([]*domain.Booking, error)
	ListPendingRefunds(ctx context.Context) ([]*domain.Booking, error)
	UpdateStatusFrom(ctx context.Context, id int64, from, to domain.BookingStatus, upd bookingRepo.StatusUpdate) error
}

// SettlementService интерфейс учета движения депозита
type SettlementService interface {
	Refund(ctx context.Context, booking *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error)
}

// Metrics интерфейс счетчиков бизнес-метрик
type Metrics interface {
	IncBookingExpired()
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
