package paymentservice

import "errors"

var (
	// ErrPaymentDeclined возвращается, когда шлюз отклонил списание
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentNotFound возвращается, когда платеж не найден в шлюзе
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrRefundFailed возвращается, когда шлюз не смог выполнить возврат
	// Возврат можно безопасно повторить с тем же ключом идемпотентности
	ErrRefundFailed = errors.New("refund failed")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paymentservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("paymentservice client: invalid response")
)
