package catalogservice

// Salon модель салона из CatalogService
type Salon struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	IsActive     bool         `json:"is_active"`
	ManagerIDs   []int64      `json:"manager_ids"`
	WorkingHours WorkingHours `json:"working_hours"`
}

// WorkingHours расписание работы салона по дням недели
type WorkingHours struct {
	Monday    DaySchedule `json:"monday"`
	Tuesday   DaySchedule `json:"tuesday"`
	Wednesday DaySchedule `json:"wednesday"`
	Thursday  DaySchedule `json:"thursday"`
	Friday    DaySchedule `json:"friday"`
	Saturday  DaySchedule `json:"saturday"`
	Sunday    DaySchedule `json:"sunday"`
}

// DaySchedule расписание работы на один день недели
type DaySchedule struct {
	IsOpen    bool    `json:"is_open"`
	OpenTime  *string `json:"open_time,omitempty"`  // "10:00"
	CloseTime *string `json:"close_time,omitempty"` // "20:00"
}

// Service модель услуги из CatalogService
// Длительность и цена - замороженные входные данные бронирования:
// их изменение в каталоге не влияет на уже созданные бронирования
type Service struct {
	ID              int64  `json:"id"`
	SalonID         int64  `json:"salon_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           int64  `json:"price"` // minor units
	IsActive        bool   `json:"is_active"`
}

// ErrorResponse модель ошибки от CatalogService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
