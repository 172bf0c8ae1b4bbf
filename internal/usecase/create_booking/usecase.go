package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glowly/booking-service/internal/domain"
	catalogClient "github.com/glowly/booking-service/internal/integrations/catalogservice"
	paymentClient "github.com/glowly/booking-service/internal/integrations/paymentservice"
	"github.com/glowly/booking-service/internal/service/bookings/models"
)

// UseCase use case для создания бронирования
// Депозит списывается до транзакции с БД: деньги двигаются вне транзакции,
// а при проигрыше гонки за слот выполняется компенсирующий возврат
type UseCase struct {
	bookingRepo   BookingRepository
	catalogClient CatalogServiceClient
	paymentClient PaymentClient
	txManager     TransactionManager
	metrics       Metrics
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	catalogClient CatalogServiceClient,
	paymentClient PaymentClient,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		catalogClient: catalogClient,
		paymentClient: paymentClient,
		txManager:     txManager,
		metrics:       metrics,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестирования)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
// Использует сериализуемую транзакцию для предотвращения двойного бронирования слота
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.BookingResponse, error) {
	uc.logger.Info("CreateBooking: user=%d, salon=%d, service=%d, date=%s, time=%s",
		req.UserID, req.SalonID, req.ServiceID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Валидация даты
	if err := validateDate(req.Date, now); err != nil {
		uc.logger.Warn("CreateBooking: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, err
	}

	// 4. Получаем салон
	salon, err := uc.catalogClient.GetSalon(ctx, req.SalonID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrSalonNotFound) {
			uc.logger.Warn("CreateBooking: salon id=%d not found", req.SalonID)
			return nil, ErrSalonNotFound
		}
		uc.logger.Error("CreateBooking: failed to get salon id=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: failed to get salon: %v", ErrInternal, err)
	}

	if !salon.IsActive {
		uc.logger.Warn("CreateBooking: salon id=%d is inactive", req.SalonID)
		return nil, ErrSalonInactive
	}

	// 5. Получаем услугу
	service, err := uc.catalogClient.GetService(ctx, req.SalonID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found in salon id=%d", req.ServiceID, req.SalonID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	if !service.IsActive {
		uc.logger.Warn("CreateBooking: service id=%d is inactive", req.ServiceID)
		return nil, ErrServiceInactive
	}

	// 6. Считаем разбивку денег: депозит фиксированный, остаток клиент платит в салоне
	split, err := domain.ComputeSplit(service.Price)
	if err != nil {
		uc.logger.Warn("CreateBooking: service id=%d price %d below deposit", req.ServiceID, service.Price)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 7. Проверяем слот относительно расписания салона
	schedule := scheduleForDay(salon, req.Date)
	if err := validateSlot(req.StartTime, service.DurationMinutes, schedule, req.Date, now); err != nil {
		uc.logger.Warn("CreateBooking: slot validation failed: %v", err)
		return nil, err
	}

	// 8. Дешевая проверка занятости без блокировки - чтобы не гонять деньги
	// через шлюз по заведомо занятому слоту. Истинная проверка идет в транзакции
	existing, err := uc.bookingRepo.GetActiveBySalonAndDate(ctx, req.SalonID, req.Date)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get active bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get active bookings: %v", ErrInternal, err)
	}

	if taken, err := hasOverlap(req.StartTime, service.DurationMinutes, existing); err != nil {
		return nil, fmt.Errorf("%w: failed to check slot availability: %v", ErrInternal, err)
	} else if taken {
		uc.logger.Warn("CreateBooking: slot %s on %s already taken", req.StartTime, req.Date.Format(domain.DateFormat))
		return nil, ErrSlotNotAvailable
	}

	// 9. Списываем депозит. Ключ идемпотентности уникален на попытку:
	// повтор запроса клиентом - новое списание, повтор ретраями шлюза - нет
	chargeKey := uuid.NewString()
	charge, err := uc.paymentClient.Charge(ctx, &paymentClient.ChargeRequest{
		Amount:       split.Deposit,
		CustomerRef:  fmt.Sprintf("customer-%d", req.UserID),
		OperationKey: chargeKey,
		Description:  fmt.Sprintf("Deposit for %s at %s", service.Name, salon.Name),
	})
	if err != nil {
		if errors.Is(err, paymentClient.ErrPaymentDeclined) {
			uc.logger.Warn("CreateBooking: deposit declined for user id=%d", req.UserID)
			return nil, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
		}
		uc.logger.Error("CreateBooking: charge failed for user id=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: charge failed: %v", ErrInternal, err)
	}

	var result *domain.Booking

	// 10. Захватываем слот в сериализуемой транзакции
	txErr := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 10.1. Перечитываем активные бронирования с блокировкой (FOR UPDATE)
		bookings, err := uc.bookingRepo.GetActiveBySalonAndDate(txCtx, req.SalonID, req.Date)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get active bookings in tx: %v", err)
			return fmt.Errorf("%w: failed to get active bookings: %v", ErrInternal, err)
		}

		// 10.2. Проверяем занятость под блокировкой
		taken, err := hasOverlap(req.StartTime, service.DurationMinutes, bookings)
		if err != nil {
			return fmt.Errorf("%w: failed to check slot availability: %v", ErrInternal, err)
		}
		if taken {
			uc.logger.Warn("CreateBooking: slot %s on %s lost to a concurrent booking", req.StartTime, req.Date.Format(domain.DateFormat))
			return ErrSlotNotAvailable
		}

		// 10.3. Создаем бронирование с замороженными длительностью и ценой
		booking := &domain.Booking{
			SalonID:             req.SalonID,
			ServiceID:           req.ServiceID,
			BookingDate:         req.Date,
			StartTime:           req.StartTime,
			DurationMinutes:     service.DurationMinutes,
			TotalPrice:          service.Price,
			DepositAmount:       split.Deposit,
			RemainingAmount:     split.Remaining,
			Status:              domain.StatusWaitingConfirmation,
			CustomerID:          req.UserID,
			CustomerName:        req.CustomerName,
			CustomerPhone:       req.CustomerPhone,
			CustomerEmail:       req.CustomerEmail,
			CustomerCountryCode: req.CustomerCountryCode,
			CustomerRequest:     req.CustomerRequest,
			PaymentID:           charge.PaymentID,
			DepositPaidAt:       &now,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if txErr != nil {
		// 11. Слот не достался - возвращаем списанный депозит
		uc.compensateCharge(ctx, charge.PaymentID, split.Deposit, chargeKey)
		return nil, txErr
	}

	if uc.metrics != nil {
		uc.metrics.IncBookingCreated()
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d, payment id=%s", result.ID, result.PaymentID)

	return models.FromDomainBooking(result, now), nil
}

// compensateCharge возвращает депозит, списанный под несостоявшееся бронирование
// Ключ возврата детерминирован от ключа списания: ретраи не задвоят возврат
func (uc *UseCase) compensateCharge(ctx context.Context, paymentID string, amount int64, chargeKey string) {
	_, err := uc.paymentClient.Refund(ctx, &paymentClient.RefundRequest{
		PaymentID:    paymentID,
		Amount:       amount,
		OperationKey: "compensate-" + chargeKey,
	})
	if err != nil {
		// Деньги списаны, бронирования нет. Оставляем след в логе для ручного разбора
		uc.logger.Error("CreateBooking: COMPENSATION FAILED for payment id=%s, amount=%d: %v", paymentID, amount, err)
		return
	}
	uc.logger.Info("CreateBooking: compensated charge for payment id=%s", paymentID)
}
