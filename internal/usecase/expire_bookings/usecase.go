package expire_bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glowly/booking-service/internal/domain"
	bookingRepo "github.com/glowly/booking-service/internal/infra/storage/booking"
	settlementSvc "github.com/glowly/booking-service/internal/service/settlement"
	"github.com/glowly/booking-service/pkg/ptr"
)

// UseCase use case фонового прогона планировщика истечений
// Один прогон делает два прохода: закрывает просроченные окна подтверждения
// и доводит незавершенные возвраты депозитов. Оба прохода идемпотентны -
// конкурентный прогон или действие менеджера просто выигрывают CAS первыми
type UseCase struct {
	bookingRepo       BookingRepository
	settlementService SettlementService
	metrics           Metrics
	timeProvider      TimeProvider
	logger            Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	settlementService SettlementService,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:       bookingRepo,
		settlementService: settlementService,
		metrics:           metrics,
		timeProvider:      &RealTimeProvider{},
		logger:            logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестирования)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Result итог одного прогона планировщика
type Result struct {
	Expired  int // бронирований переведено в refund_pending по таймауту
	Refunded int // возвратов доведено до refunded
}

// Execute выполняет один прогон планировщика
func (uc *UseCase) Execute(ctx context.Context) (*Result, error) {
	now := uc.timeProvider.Now()
	result := &Result{}

	// 1. Закрываем просроченные окна подтверждения
	expired, err := uc.bookingRepo.ListExpiredWaiting(ctx, now)
	if err != nil {
		uc.logger.Error("ExpireBookings: failed to list expired bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to list expired bookings: %v", ErrInternal, err)
	}

	for _, booking := range expired {
		if uc.expireOne(ctx, booking, now) {
			result.Expired++
		}
	}

	// 2. Доводим незавершенные возвраты: зависшие refund_pending
	// и отмены клиентом без записи в settlements
	pending, err := uc.bookingRepo.ListPendingRefunds(ctx)
	if err != nil {
		uc.logger.Error("ExpireBookings: failed to list pending refunds: %v", err)
		return nil, fmt.Errorf("%w: failed to list pending refunds: %v", ErrInternal, err)
	}

	for _, booking := range pending {
		if uc.settleOne(ctx, booking) {
			result.Refunded++
		}
	}

	if result.Expired > 0 || result.Refunded > 0 {
		uc.logger.Info("ExpireBookings: expired=%d, refunded=%d", result.Expired, result.Refunded)
	}

	return result, nil
}

// expireOne переводит одно просроченное бронирование в refund_pending
// Проигрыш CAS не ошибка: менеджер успел подтвердить или отклонить раньше
func (uc *UseCase) expireOne(ctx context.Context, booking *domain.Booking, now time.Time) bool {
	err := uc.bookingRepo.UpdateStatusFrom(ctx, booking.ID,
		domain.StatusWaitingConfirmation, domain.StatusRefundPending,
		bookingRepo.StatusUpdate{
			RejectionReason: ptr.Ptr(domain.TimeoutRejectionReason),
			RejectedAt:      &now,
		},
	)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) || errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return false
		}
		uc.logger.Error("ExpireBookings: failed to expire booking id=%d: %v", booking.ID, err)
		return false
	}

	if uc.metrics != nil {
		uc.metrics.IncBookingExpired()
	}

	uc.logger.Info("ExpireBookings: booking id=%d expired after approval window", booking.ID)
	return true
}

// settleOne доводит возврат по одному бронированию
// Для refund_pending после возврата закрывается переход в refunded;
// отмена клиентом уже в терминальном статусе - ей нужна только запись движения
func (uc *UseCase) settleOne(ctx context.Context, booking *domain.Booking) bool {
	_, err := uc.settlementService.Refund(ctx, booking, refundReason(booking))
	if err != nil && !errors.Is(err, settlementSvc.ErrAlreadySettled) {
		uc.logger.Warn("ExpireBookings: refund still failing for booking id=%d: %v", booking.ID, err)
		return false
	}

	if booking.Status != domain.StatusRefundPending {
		return true
	}

	err = uc.bookingRepo.UpdateStatusFrom(ctx, booking.ID,
		domain.StatusRefundPending, domain.StatusRefunded,
		bookingRepo.StatusUpdate{},
	)
	if err != nil && !errors.Is(err, bookingRepo.ErrStatusConflict) {
		uc.logger.Error("ExpireBookings: failed to mark booking id=%d as refunded: %v", booking.ID, err)
		return false
	}

	return true
}

// refundReason восстанавливает бизнес-причину возврата из состояния бронирования
func refundReason(booking *domain.Booking) domain.SettlementReason {
	if booking.Status == domain.StatusCancelledByCustomer {
		return domain.ReasonCancelledByCustomer
	}
	if booking.RejectionReason != nil && *booking.RejectionReason == domain.TimeoutRejectionReason {
		return domain.ReasonTimeout
	}
	return domain.ReasonRejected
}
