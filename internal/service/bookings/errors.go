package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSalonNotFound возвращается, когда салон не найден
	ErrSalonNotFound = errors.New("salon not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав на операцию
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidTransition возвращается при попытке перехода вне таблицы переходов
	// Вызывающая сторона видит устаревшее состояние - повторять запрос бессмысленно
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrBookingExpired возвращается при попытке подтвердить или отклонить
	// бронирование, по которому уже сработал таймаут окна подтверждения
	ErrBookingExpired = errors.New("booking approval window expired")

	// ErrStatusConflict возвращается, когда конкурентный переход победил -
	// нужно перечитать состояние и решить заново
	ErrStatusConflict = errors.New("booking status changed concurrently")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings service: internal error")
)
