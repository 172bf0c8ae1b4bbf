package domain

import "errors"

var (
	// ErrInvalidTransition возвращается при попытке перехода вне таблицы переходов
	ErrInvalidTransition = errors.New("domain: invalid booking status transition")

	// ErrUnknownStatus возвращается при неизвестном значении статуса
	ErrUnknownStatus = errors.New("domain: unknown booking status")

	// ErrPriceBelowDeposit возвращается, когда цена услуги меньше фиксированного депозита
	ErrPriceBelowDeposit = errors.New("domain: total price is below the deposit amount")
)
