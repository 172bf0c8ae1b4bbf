package settlement

import "errors"

var (
	// ErrAlreadySettled возвращается при попытке записать второе движение денег
	// по одному бронированию - уникальный индекс по booking_id не даст задвоить
	// возврат или выплату
	ErrAlreadySettled = errors.New("settlement.repository: booking already settled")

	// ErrSettlementNotFound возвращается, когда запись о движении денег не найдена
	ErrSettlementNotFound = errors.New("settlement.repository: settlement not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("settlement.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("settlement.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("settlement.repository: failed to scan row")
)
