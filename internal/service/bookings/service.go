package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowly/booking-service/internal/domain"
	bookingRepo "github.com/glowly/booking-service/internal/infra/storage/booking"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
	"github.com/glowly/booking-service/internal/service/bookings/models"
	settlementSvc "github.com/glowly/booking-service/internal/service/settlement"
)

// Service управляет жизненным циклом бронирований после создания:
// подтверждение, отклонение, завершение, неявка и отмена клиентом.
// Каждый переход статуса идет через CAS в репозитории - конкурентные
// действия менеджера, клиента и планировщика не могут затереть друг друга
type Service struct {
	bookingRepo       BookingRepository
	settlementService SettlementService
	catalogClient     CatalogServiceClient
	timeProvider      TimeProvider
	logger            Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	settlementService SettlementService,
	catalogClient CatalogServiceClient,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:       bookingRepo,
		settlementService: settlementService,
		catalogClient:     catalogClient,
		timeProvider:      timeProvider,
		logger:            logger,
	}
}

// GetByID возвращает бронирование по ID
// Доступно владельцу бронирования и менеджерам салона
func (s *Service) GetByID(ctx context.Context, userID, bookingID int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.CustomerID != userID {
		if err := s.checkManagerAccess(ctx, booking.SalonID, userID); err != nil {
			return nil, err
		}
	}

	return models.FromDomainBooking(booking, s.timeProvider.Now()), nil
}

// List возвращает список бронирований
// Без salonId возвращаются бронирования самого вызывающего;
// с salonId - бронирования салона, доступно только его менеджерам
func (s *Service) List(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	filter := domain.BookingsFilter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Status = &status
	}

	if req.SalonID != nil {
		if err := s.checkManagerAccess(ctx, *req.SalonID, req.UserID); err != nil {
			return nil, err
		}
		filter.SalonID = req.SalonID
	} else {
		filter.CustomerID = &req.UserID
	}

	bookings, err := s.bookingRepo.GetWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("List: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings, s.timeProvider.Now()), nil
}

// Approve подтверждает бронирование менеджером салона
// Переход waiting_confirmation -> confirmed, слот остается занятым
func (s *Service) Approve(ctx context.Context, userID, bookingID int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.SalonID, userID); err != nil {
		return nil, err
	}

	if err := s.checkTransition(booking, domain.EventApprove); err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	err = s.bookingRepo.UpdateStatusFrom(ctx, bookingID,
		domain.StatusWaitingConfirmation, domain.StatusConfirmed,
		bookingRepo.StatusUpdate{ConfirmedAt: &now},
	)
	if err != nil {
		return nil, s.mapUpdateError(ctx, bookingID, err, "Approve")
	}

	s.logger.Info("Approve: booking id=%d confirmed by manager id=%d", bookingID, userID)

	return s.reload(ctx, bookingID)
}

// Reject отклоняет бронирование менеджером салона
// Переход waiting_confirmation -> refund_pending, затем возврат депозита
// и refund_pending -> refunded. Если шлюз недоступен, бронирование остается
// в refund_pending - возврат доведет планировщик
func (s *Service) Reject(ctx context.Context, bookingID int64, req *models.RejectBookingRequest) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.SalonID, req.UserID); err != nil {
		return nil, err
	}

	if err := s.checkTransition(booking, domain.EventReject); err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	err = s.bookingRepo.UpdateStatusFrom(ctx, bookingID,
		domain.StatusWaitingConfirmation, domain.StatusRefundPending,
		bookingRepo.StatusUpdate{RejectionReason: req.Reason, RejectedAt: &now},
	)
	if err != nil {
		return nil, s.mapUpdateError(ctx, bookingID, err, "Reject")
	}

	s.logger.Info("Reject: booking id=%d rejected by manager id=%d", bookingID, req.UserID)

	s.finalizeRefund(ctx, booking, domain.ReasonRejected)

	return s.reload(ctx, bookingID)
}

// Complete отмечает визит как состоявшийся
// Переход confirmed -> completed, депозит выплачивается салону за вычетом комиссии
func (s *Service) Complete(ctx context.Context, userID, bookingID int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.SalonID, userID); err != nil {
		return nil, err
	}

	if err := s.checkTransition(booking, domain.EventComplete); err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	err = s.bookingRepo.UpdateStatusFrom(ctx, bookingID,
		domain.StatusConfirmed, domain.StatusCompleted,
		bookingRepo.StatusUpdate{CompletedAt: &now},
	)
	if err != nil {
		return nil, s.mapUpdateError(ctx, bookingID, err, "Complete")
	}

	if _, err := s.settlementService.Payout(ctx, booking, domain.ReasonCompleted); err != nil && !errors.Is(err, settlementSvc.ErrAlreadySettled) {
		// Статус уже терминальный, выплату запишет повторный прогон биллинга
		s.logger.Error("Complete: payout failed for booking id=%d: %v", bookingID, err)
	}

	s.logger.Info("Complete: booking id=%d completed by manager id=%d", bookingID, userID)

	return s.reload(ctx, bookingID)
}

// MarkNoShow отмечает неявку клиента
// Переход confirmed -> no_show, депозит не возвращается и выплачивается
// салону за вычетом комиссии - как при состоявшемся визите
func (s *Service) MarkNoShow(ctx context.Context, userID, bookingID int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.SalonID, userID); err != nil {
		return nil, err
	}

	if err := s.checkTransition(booking, domain.EventNoShow); err != nil {
		return nil, err
	}

	err = s.bookingRepo.UpdateStatusFrom(ctx, bookingID,
		domain.StatusConfirmed, domain.StatusNoShow,
		bookingRepo.StatusUpdate{},
	)
	if err != nil {
		return nil, s.mapUpdateError(ctx, bookingID, err, "MarkNoShow")
	}

	if _, err := s.settlementService.Payout(ctx, booking, domain.ReasonNoShow); err != nil && !errors.Is(err, settlementSvc.ErrAlreadySettled) {
		s.logger.Error("MarkNoShow: payout failed for booking id=%d: %v", bookingID, err)
	}

	s.logger.Info("MarkNoShow: booking id=%d marked as no-show by manager id=%d", bookingID, userID)

	return s.reload(ctx, bookingID)
}

// CancelByCustomer отменяет подтвержденное бронирование по инициативе клиента
// Переход confirmed -> cancelled_by_customer, депозит возвращается полностью
func (s *Service) CancelByCustomer(ctx context.Context, userID, bookingID int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.CustomerID != userID {
		return nil, fmt.Errorf("%w: user id=%d is not the owner of booking id=%d", ErrAccessDenied, userID, bookingID)
	}

	if err := s.checkTransition(booking, domain.EventCancelByCustomer); err != nil {
		return nil, err
	}

	err = s.bookingRepo.UpdateStatusFrom(ctx, bookingID,
		domain.StatusConfirmed, domain.StatusCancelledByCustomer,
		bookingRepo.StatusUpdate{},
	)
	if err != nil {
		return nil, s.mapUpdateError(ctx, bookingID, err, "CancelByCustomer")
	}

	// Возврат вне перехода статуса: при отказе шлюза бронирование уже
	// отменено, а незакрытый возврат подберет планировщик
	if _, err := s.settlementService.Refund(ctx, booking, domain.ReasonCancelledByCustomer); err != nil && !errors.Is(err, settlementSvc.ErrAlreadySettled) {
		s.logger.Error("CancelByCustomer: refund failed for booking id=%d: %v", bookingID, err)
	}

	s.logger.Info("CancelByCustomer: booking id=%d cancelled by customer id=%d", bookingID, userID)

	return s.reload(ctx, bookingID)
}

// getBooking получает бронирование и маппит ошибку репозитория на ошибку сервиса
func (s *Service) getBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrBookingNotFound, bookingID)
		}
		s.logger.Error("getBooking: failed to get booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return booking, nil
}

// checkManagerAccess проверяет, что пользователь является менеджером салона
func (s *Service) checkManagerAccess(ctx context.Context, salonID, userID int64) error {
	salon, err := s.catalogClient.GetSalon(ctx, salonID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrSalonNotFound) {
			return fmt.Errorf("%w: id=%d", ErrSalonNotFound, salonID)
		}
		s.logger.Error("checkManagerAccess: failed to get salon id=%d: %v", salonID, err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	for _, managerID := range salon.ManagerIDs {
		if managerID == userID {
			return nil
		}
	}

	return fmt.Errorf("%w: user id=%d is not a manager of salon id=%d", ErrAccessDenied, userID, salonID)
}

// checkTransition проверяет допустимость события для текущего статуса
// Попадание в уже истекшее по таймауту бронирование отличается от прочих
// недопустимых переходов: менеджер опоздал, а не ошибся
func (s *Service) checkTransition(booking *domain.Booking, event domain.TransitionEvent) error {
	if _, err := domain.NextStatus(booking.Status, event); err != nil {
		if s.expiredByTimeout(booking) && (event == domain.EventApprove || event == domain.EventReject) {
			return fmt.Errorf("%w: booking id=%d", ErrBookingExpired, booking.ID)
		}
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return nil
}

// expiredByTimeout определяет, было ли бронирование закрыто планировщиком по таймауту
func (s *Service) expiredByTimeout(booking *domain.Booking) bool {
	if booking.Status != domain.StatusRefundPending && booking.Status != domain.StatusRefunded {
		return false
	}
	return booking.RejectionReason != nil && *booking.RejectionReason == domain.TimeoutRejectionReason
}

// finalizeRefund возвращает депозит и закрывает переход refund_pending -> refunded
// Ошибка шлюза не пробрасывается: бронирование остается в refund_pending,
// возврат доведет фоновая сверка планировщика
func (s *Service) finalizeRefund(ctx context.Context, booking *domain.Booking, reason domain.SettlementReason) {
	_, err := s.settlementService.Refund(ctx, booking, reason)
	if err != nil && !errors.Is(err, settlementSvc.ErrAlreadySettled) {
		s.logger.Error("finalizeRefund: refund failed for booking id=%d, left in refund_pending: %v", booking.ID, err)
		return
	}

	err = s.bookingRepo.UpdateStatusFrom(ctx, booking.ID,
		domain.StatusRefundPending, domain.StatusRefunded,
		bookingRepo.StatusUpdate{},
	)
	if err != nil && !errors.Is(err, bookingRepo.ErrStatusConflict) {
		s.logger.Error("finalizeRefund: failed to mark booking id=%d as refunded: %v", booking.ID, err)
	}
}

// mapUpdateError маппит ошибки CAS-обновления статуса на ошибки сервиса
func (s *Service) mapUpdateError(ctx context.Context, bookingID int64, err error, op string) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		return fmt.Errorf("%w: id=%d", ErrBookingNotFound, bookingID)
	case errors.Is(err, bookingRepo.ErrStatusConflict):
		// Перечитываем состояние: возможно, конкурентом был таймаут планировщика
		if current, getErr := s.bookingRepo.GetByID(ctx, bookingID); getErr == nil && s.expiredByTimeout(current) {
			return fmt.Errorf("%w: booking id=%d", ErrBookingExpired, bookingID)
		}
		return fmt.Errorf("%w: booking id=%d", ErrStatusConflict, bookingID)
	default:
		s.logger.Error("%s: failed to update booking id=%d status: %v", op, bookingID, err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

// reload перечитывает бронирование после перехода для актуального ответа
func (s *Service) reload(ctx context.Context, bookingID int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking, s.timeProvider.Now()), nil
}
