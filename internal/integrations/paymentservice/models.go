package paymentservice

// ChargeRequest запрос на списание депозита
type ChargeRequest struct {
	Amount       int64  `json:"amount"` // minor units
	CustomerRef  string `json:"customerRef"`
	OperationKey string `json:"operationKey"` // ключ идемпотентности
	Description  string `json:"description,omitempty"`
}

// ChargeResult результат успешного списания
type ChargeResult struct {
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
}

// RefundRequest запрос на возврат списанного депозита
type RefundRequest struct {
	PaymentID    string `json:"paymentId"`
	Amount       int64  `json:"amount"`
	OperationKey string `json:"operationKey"` // ключ идемпотентности
}

// RefundResult результат успешного возврата
type RefundResult struct {
	RefundID string `json:"refundId"`
	Amount   int64  `json:"amount"`
}

// ErrorResponse модель ошибки от платежного шлюза
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
