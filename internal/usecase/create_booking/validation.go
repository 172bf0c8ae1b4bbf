package create_booking

import (
	"fmt"
	"time"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
	"github.com/glowly/booking-service/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.SalonID <= 0 {
		return fmt.Errorf("%w: salonID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if req.CustomerName == "" {
		return fmt.Errorf("%w: customerName is required", ErrInvalidInput)
	}

	if len(req.CustomerName) > domain.MaxCustomerNameLength {
		return fmt.Errorf("%w: customerName exceeds %d characters", ErrInvalidInput, domain.MaxCustomerNameLength)
	}

	if req.CustomerPhone == "" {
		return fmt.Errorf("%w: customerPhone is required", ErrInvalidInput)
	}

	if req.CustomerRequest != nil && len(*req.CustomerRequest) > domain.MaxCustomerRequestLength {
		return fmt.Errorf("%w: customerRequest exceeds %d characters", ErrInvalidInput, domain.MaxCustomerRequestLength)
	}

	return nil
}

// validateDate проверяет, что дата бронирования не в прошлом
func validateDate(bookingDate, now time.Time) error {
	dateOnly := time.Date(bookingDate.Year(), bookingDate.Month(), bookingDate.Day(), 0, 0, 0, 0, bookingDate.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if dateOnly.Before(nowOnly) {
		return ErrInvalidDate
	}
	return nil
}

// validateSlot проверяет, что слот лежит на сетке и целиком внутри рабочих часов,
// а для сегодняшней даты - что его начало еще не прошло
func validateSlot(
	startTime types.TimeString,
	durationMinutes int,
	schedule catalogservice.DaySchedule,
	date, now time.Time,
) error {
	if !schedule.IsOpen || schedule.OpenTime == nil || schedule.CloseTime == nil {
		return ErrSalonClosed
	}

	openTime := types.TimeString(*schedule.OpenTime)
	closeTime := types.TimeString(*schedule.CloseTime)

	if !onSlotGrid(startTime, openTime) {
		return fmt.Errorf("%w: startTime must be aligned to the %d-minute grid", ErrInvalidTimeSlot, domain.SlotDurationMinutes)
	}

	if startTime.IsBefore(openTime) {
		return fmt.Errorf("%w: salon opens at %s", ErrInvalidTimeSlot, openTime)
	}

	endTime, err := startTime.AddMinutes(durationMinutes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
	}

	// Услуга должна целиком уложиться до закрытия
	if endTime.IsAfter(closeTime) {
		return fmt.Errorf("%w: service does not fit before closing at %s", ErrInvalidTimeSlot, closeTime)
	}

	if isSameDay(date, now) && !startTime.IsAfter(types.NewTimeString(now)) {
		return fmt.Errorf("%w: startTime is already in the past", ErrInvalidTimeSlot)
	}

	return nil
}

// onSlotGrid проверяет, что время начала отстоит от открытия на целое число шагов сетки
func onSlotGrid(startTime, openTime types.TimeString) bool {
	step := 0
	cursor := openTime
	for !cursor.IsAfter(startTime) {
		if cursor == startTime {
			return true
		}
		next, err := cursor.AddMinutes(domain.SlotDurationMinutes)
		if err != nil {
			return false
		}
		cursor = next
		step++
		if step > 24*60/domain.SlotDurationMinutes {
			return false
		}
	}
	return false
}

// hasOverlap проверяет пересечение слота с активными бронированиями
// Интервалы полуоткрытые: стык "конец одного = начало другого" пересечением не считается
func hasOverlap(startTime types.TimeString, durationMinutes int, bookings []*domain.Booking) (bool, error) {
	slotEnd, err := startTime.AddMinutes(durationMinutes)
	if err != nil {
		return false, err
	}

	for _, booking := range bookings {
		if !booking.IsActive() {
			continue
		}

		bookingEnd, err := booking.StartTime.AddMinutes(booking.DurationMinutes)
		if err != nil {
			continue
		}

		if booking.StartTime.IsBefore(slotEnd) && bookingEnd.IsAfter(startTime) {
			return true, nil
		}
	}

	return false, nil
}

// scheduleForDay возвращает расписание работы салона на день недели даты
func scheduleForDay(salon *catalogservice.Salon, date time.Time) catalogservice.DaySchedule {
	switch date.Weekday() {
	case time.Monday:
		return salon.WorkingHours.Monday
	case time.Tuesday:
		return salon.WorkingHours.Tuesday
	case time.Wednesday:
		return salon.WorkingHours.Wednesday
	case time.Thursday:
		return salon.WorkingHours.Thursday
	case time.Friday:
		return salon.WorkingHours.Friday
	case time.Saturday:
		return salon.WorkingHours.Saturday
	case time.Sunday:
		return salon.WorkingHours.Sunday
	default:
		return catalogservice.DaySchedule{IsOpen: false}
	}
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
