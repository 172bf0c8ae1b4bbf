package settlement

import (
	"context"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/internal/integrations/paymentservice"
)

// SettlementRepository интерфейс репозитория записей о движении денег
type SettlementRepository interface {
	Create(ctx context.Context, s *domain.Settlement) (*domain.Settlement, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Settlement, error)
}

// PaymentClient интерфейс клиента платежного шлюза
type PaymentClient interface {
	Refund(ctx context.Context, req *paymentservice.RefundRequest) (*paymentservice.RefundResult, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics интерфейс бизнес-метрик (опционален, может быть nil)
type Metrics interface {
	IncSettlement(kind string)
}
