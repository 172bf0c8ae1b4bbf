package get_available_slots

import (
	"time"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
	"github.com/glowly/booking-service/pkg/types"
)

// generateSlots генерирует сетку слотов на день с шагом SlotDurationMinutes
// В сетку попадают только те старты, от которых услуга целиком умещается
// до закрытия салона
func generateSlots(
	schedule catalogservice.DaySchedule,
	serviceDurationMinutes int,
) ([]types.TimeString, error) {
	if !schedule.IsOpen || schedule.OpenTime == nil || schedule.CloseTime == nil {
		return []types.TimeString{}, nil
	}

	openTime, err := types.NewTimeStringFromString(*schedule.OpenTime)
	if err != nil {
		return nil, err
	}

	closeTime, err := types.NewTimeStringFromString(*schedule.CloseTime)
	if err != nil {
		return nil, err
	}

	slots := make([]types.TimeString, 0)
	current := openTime

	for current.IsBefore(closeTime) {
		serviceEnd, err := current.AddMinutes(serviceDurationMinutes)
		if err != nil {
			return nil, err
		}
		if serviceEnd.IsAfter(closeTime) {
			break
		}

		slots = append(slots, current)

		current, err = current.AddMinutes(domain.SlotDurationMinutes)
		if err != nil {
			return nil, err
		}
	}

	return slots, nil
}

// markAvailability размечает сетку признаком доступности
// Слот недоступен, если услуга из него пересекается с активным бронированием
// или, для сегодняшней даты, его начало уже прошло. Интервалы полуоткрытые:
// стык "конец одного = начало другого" пересечением не считается
func markAvailability(
	starts []types.TimeString,
	serviceDurationMinutes int,
	bookings []*domain.Booking,
	date, now time.Time,
) []Slot {
	result := make([]Slot, len(starts))
	today := isSameDay(date, now)
	currentTime := types.NewTimeString(now)

	for i, start := range starts {
		available := !overlapsActive(start, serviceDurationMinutes, bookings)

		if available && today && !start.IsAfter(currentTime) {
			available = false
		}

		result[i] = Slot{
			StartTime:       start,
			DurationMinutes: serviceDurationMinutes,
			Available:       available,
			DayPart:         domain.DayPartFor(start),
		}
	}

	return result
}

// overlapsActive проверяет пересечение слота с активными бронированиями
func overlapsActive(slotStart types.TimeString, durationMinutes int, bookings []*domain.Booking) bool {
	slotEnd, err := slotStart.AddMinutes(durationMinutes)
	if err != nil {
		return false
	}

	for _, booking := range bookings {
		if !booking.IsActive() {
			continue
		}

		bookingEnd, err := booking.StartTime.AddMinutes(booking.DurationMinutes)
		if err != nil {
			continue
		}

		if booking.StartTime.IsBefore(slotEnd) && bookingEnd.IsAfter(slotStart) {
			return true
		}
	}

	return false
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

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return dateOnly.Before(nowOnly)
}
