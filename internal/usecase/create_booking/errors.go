package create_booking

import "errors"

var (
	// ErrSalonNotFound возвращается, когда салон не найден
	ErrSalonNotFound = errors.New("create_booking: salon not found")

	// ErrSalonInactive возвращается, когда салон деактивирован в каталоге
	ErrSalonInactive = errors.New("create_booking: salon is inactive")

	// ErrServiceNotFound возвращается, когда услуга не найдена в салоне
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrServiceInactive возвращается, когда услуга деактивирована в каталоге
	ErrServiceInactive = errors.New("create_booking: service is inactive")

	// ErrInvalidDate возвращается при дате бронирования в прошлом
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrSalonClosed возвращается, когда салон не работает в указанную дату
	ErrSalonClosed = errors.New("create_booking: salon is closed on this date")

	// ErrInvalidTimeSlot возвращается, когда время вне сетки слотов или рабочих часов
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrSlotNotAvailable возвращается, когда слот уже занят активным бронированием
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrPaymentDeclined возвращается, когда шлюз отклонил списание депозита
	// Бронирование при этом не создается
	ErrPaymentDeclined = errors.New("create_booking: deposit payment declined")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
