package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowly/booking-service/internal/domain"
	settlementRepo "github.com/glowly/booking-service/internal/infra/storage/settlement"
	"github.com/glowly/booking-service/internal/integrations/paymentservice"
)

// Service учет движения депозита по бронированиям
// Сервис никогда не меняет статус бронирования - только считает суммы,
// дергает шлюз и записывает свершившееся движение в append-only таблицу
type Service struct {
	settlementRepo SettlementRepository
	paymentClient  PaymentClient
	logger         Logger
	metrics        Metrics
}

// NewService создает новый экземпляр сервиса учета
func NewService(
	settlementRepo SettlementRepository,
	paymentClient PaymentClient,
	logger Logger,
	metrics Metrics,
) *Service {
	return &Service{
		settlementRepo: settlementRepo,
		paymentClient:  paymentClient,
		logger:         logger,
		metrics:        metrics,
	}
}

// Refund возвращает клиенту полный депозит через платежный шлюз и записывает движение
//
// Порядок важен: сначала проверка уже свершившегося движения, затем вызов шлюза
// с детерминированным ключом идемпотентности, и только после успеха - запись.
// Любой обрыв между шагами безопасен для денег: повтор либо упрется в
// ErrAlreadySettled, либо повторит идемпотентный вызов шлюза
func (s *Service) Refund(ctx context.Context, booking *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error) {
	amount := domain.RefundAmount()

	if existing, err := s.findExisting(ctx, booking.ID); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Warn("Refund: booking id=%d already settled (kind=%s, reason=%s)", booking.ID, existing.Kind, existing.Reason)
		return existing, ErrAlreadySettled
	}

	operationKey := refundOperationKey(booking.ID)

	_, err := s.paymentClient.Refund(ctx, &paymentservice.RefundRequest{
		PaymentID:    booking.PaymentID,
		Amount:       amount,
		OperationKey: operationKey,
	})
	if err != nil {
		s.logger.Error("Refund: gateway refund failed for booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: booking id=%d: %v", ErrRefundFailed, booking.ID, err)
	}

	return s.record(ctx, &domain.Settlement{
		BookingID:    booking.ID,
		Kind:         domain.SettlementRefund,
		Reason:       reason,
		Amount:       amount,
		OperationKey: operationKey,
	})
}

// Payout записывает выплату депозита салону за вычетом комиссии платформы
//
// Остаток цены клиент платит в салоне напрямую - ядро его не двигает.
// Выплата не ходит в шлюз: депозит уже захвачен платформой, перечисление
// салону выполняет биллинг по записям settlements
func (s *Service) Payout(ctx context.Context, booking *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error) {
	amount := domain.PayoutAmount()

	if existing, err := s.findExisting(ctx, booking.ID); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Warn("Payout: booking id=%d already settled (kind=%s, reason=%s)", booking.ID, existing.Kind, existing.Reason)
		return existing, ErrAlreadySettled
	}

	return s.record(ctx, &domain.Settlement{
		BookingID:    booking.ID,
		Kind:         domain.SettlementPayout,
		Reason:       reason,
		Amount:       amount,
		OperationKey: payoutOperationKey(booking.ID),
	})
}

// findExisting возвращает уже записанное движение по бронированию, если оно есть
func (s *Service) findExisting(ctx context.Context, bookingID int64) (*domain.Settlement, error) {
	existing, err := s.settlementRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, settlementRepo.ErrSettlementNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to check existing settlement: %v", ErrInternal, err)
	}
	return existing, nil
}

// record записывает движение; гонку вставок разрешает уникальный индекс
func (s *Service) record(ctx context.Context, settlement *domain.Settlement) (*domain.Settlement, error) {
	created, err := s.settlementRepo.Create(ctx, settlement)
	if err != nil {
		if errors.Is(err, settlementRepo.ErrAlreadySettled) {
			if existing, findErr := s.settlementRepo.GetByBookingID(ctx, settlement.BookingID); findErr == nil {
				return existing, ErrAlreadySettled
			}
			return nil, ErrAlreadySettled
		}
		return nil, fmt.Errorf("%w: failed to record settlement: %v", ErrInternal, err)
	}

	if s.metrics != nil {
		s.metrics.IncSettlement(string(created.Kind))
	}

	s.logger.Info("Settlement recorded: booking id=%d, kind=%s, reason=%s, amount=%d",
		created.BookingID, created.Kind, created.Reason, created.Amount)
	return created, nil
}

// refundOperationKey детерминированный ключ идемпотентности возврата
// Один и тот же ключ на все попытки возврата по бронированию
func refundOperationKey(bookingID int64) string {
	return fmt.Sprintf("refund-booking-%d", bookingID)
}

// payoutOperationKey детерминированный ключ идемпотентности выплаты
func payoutOperationKey(bookingID int64) string {
	return fmt.Sprintf("payout-booking-%d", bookingID)
}
