package settlement

import "errors"

var (
	// ErrAlreadySettled возвращается при попытке повторного движения денег
	// по бронированию - защита от двойного возврата или двойной выплаты
	ErrAlreadySettled = errors.New("settlement: booking already settled")

	// ErrRefundFailed возвращается, когда шлюз не выполнил возврат
	// Движение не записано, повторная попытка безопасна
	ErrRefundFailed = errors.New("settlement: refund failed")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("settlement: internal error")
)
