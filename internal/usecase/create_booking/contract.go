package create_booking

import (
	"context"
	"time"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
	"github.com/glowly/booking-service/internal/integrations/paymentservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetActiveBySalonAndDate(ctx context.Context, salonID int64, date time.Time) ([]*domain.Booking, error)
}

// CatalogServiceClient интерфейс клиента CatalogService
type CatalogServiceClient interface {
	GetSalon(ctx context.Context, salonID int64) (*catalogservice.Salon, error)
	GetService(ctx context.Context, salonID, serviceID int64) (*catalogservice.Service, error)
}

// PaymentClient интерфейс платежного шлюза
type PaymentClient interface {
	Charge(ctx context.Context, req *paymentservice.ChargeRequest) (*paymentservice.ChargeResult, error)
	Refund(ctx context.Context, req *paymentservice.RefundRequest) (*paymentservice.RefundResult, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс счетчиков бизнес-метрик
type Metrics interface {
	IncBookingCreated()
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
