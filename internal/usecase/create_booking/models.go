package create_booking

import (
	"time"

	"github.com/glowly/booking-service/pkg/types"
)

// Request модель запроса на создание бронирования
// Ответ использует общую модель бронирования из service/bookings/models -
// клиент видит созданное бронирование в том же виде, что и при чтении
type Request struct {
	UserID    int64            // ID клиента
	SalonID   int64            // ID салона
	ServiceID int64            // ID услуги
	Date      time.Time        // Дата бронирования (без времени)
	StartTime types.TimeString // Время начала слота ("14:00")

	// Снимок контактных данных клиента на момент бронирования
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	CustomerCountryCode string

	CustomerRequest *string // Пожелания клиента (опционально)
}
