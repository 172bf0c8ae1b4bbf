package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowly/booking-service/internal/domain"
	catalogClient "github.com/glowly/booking-service/internal/integrations/catalogservice"
)

// UseCase use case для получения сетки доступных слотов
// Доступность считается на лету из активных бронирований - отдельного
// хранилища слотов нет, источником истины остается таблица bookings
type UseCase struct {
	bookingRepo   BookingRepository
	catalogClient CatalogServiceClient
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	catalogClient CatalogServiceClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		catalogClient: catalogClient,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестирования)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: salon=%d, service=%d, date=%s",
		req.SalonID, req.ServiceID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Прошедшая дата - пустая сетка, не ошибка
	if isDateInPast(req.Date, now) {
		return uc.emptyResponse(req), nil
	}

	// 4. Получаем салон
	salon, err := uc.catalogClient.GetSalon(ctx, req.SalonID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrSalonNotFound) {
			uc.logger.Warn("GetAvailableSlots: salon id=%d not found", req.SalonID)
			return nil, ErrSalonNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get salon id=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: failed to get salon: %v", ErrInternal, err)
	}

	// Неактивный салон не бронируется - сетка пустая
	if !salon.IsActive {
		uc.logger.Info("GetAvailableSlots: salon id=%d is inactive", req.SalonID)
		return uc.emptyResponse(req), nil
	}

	// 5. Получаем услугу - ее длительность определяет, какие старты подходят
	service, err := uc.catalogClient.GetService(ctx, req.SalonID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found in salon id=%d", req.ServiceID, req.SalonID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 6. Генерируем сетку слотов по расписанию дня
	schedule := scheduleForDay(salon, req.Date)
	starts, err := generateSlots(schedule, service.DurationMinutes)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to generate slots: %v", err)
		return nil, fmt.Errorf("%w: failed to generate slots: %v", ErrInternal, err)
	}

	if len(starts) == 0 {
		uc.logger.Info("GetAvailableSlots: salon id=%d is closed on %s", req.SalonID, req.Date.Format(domain.DateFormat))
		return uc.emptyResponse(req), nil
	}

	// 7. Получаем активные бронирования на дату
	bookings, err := uc.bookingRepo.GetActiveBySalonAndDate(ctx, req.SalonID, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 8. Размечаем доступность
	slots := markAvailability(starts, service.DurationMinutes, bookings, req.Date, now)

	uc.logger.Info("GetAvailableSlots: generated %d slots for salon=%d, service=%d, date=%s",
		len(slots), req.SalonID, req.ServiceID, req.Date.Format(domain.DateFormat))

	return &Response{
		Date:      req.Date,
		SalonID:   req.SalonID,
		ServiceID: req.ServiceID,
		Slots:     slots,
	}, nil
}

func (uc *UseCase) emptyResponse(req *Request) *Response {
	return &Response{
		Date:      req.Date,
		SalonID:   req.SalonID,
		ServiceID: req.ServiceID,
		Slots:     []Slot{},
	}
}
