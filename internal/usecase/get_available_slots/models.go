package get_available_slots

import (
	"time"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	SalonID   int64     // ID салона
	ServiceID int64     // ID услуги (длительность определяет, какие слоты подходят)
	Date      time.Time // Дата для получения слотов (без времени)
}

// Response модель ответа со списком слотов на дату
type Response struct {
	Date      time.Time // Дата, на которую запрашивались слоты
	SalonID   int64     // ID салона
	ServiceID int64     // ID услуги
	Slots     []Slot    // Сетка слотов с признаком доступности
}

// Slot модель временного слота
type Slot struct {
	StartTime       types.TimeString // Время начала слота ("14:00")
	DurationMinutes int              // Длительность услуги в минутах
	Available       bool             // Свободен ли слот
	DayPart         domain.DayPart   // Часть дня: morning / afternoon / evening
}
