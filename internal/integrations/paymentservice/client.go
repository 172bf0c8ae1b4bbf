package paymentservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент платежного шлюза
// Все денежные операции идемпотентны по OperationKey: повтор запроса с тем же
// ключом не приводит к повторному движению денег на стороне шлюза
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента платежного шлюза
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Charge списывает депозит с клиента
// При отклонении платежа возвращает ErrPaymentDeclined - бронирование в этом
// случае создаваться не должно
func (c *Client) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	c.log.Info("Charge: amount=%d, customer_ref=%s, operation_key=%s", req.Amount, req.CustomerRef, req.OperationKey)

	var result ChargeResult
	if err := c.postJSON(ctx, "/internal/payments/charge", req, req.OperationKey, &result, ErrPaymentDeclined); err != nil {
		return nil, err
	}

	c.log.Info("Charge: captured payment_id=%s, amount=%d", result.PaymentID, result.Amount)
	return &result, nil
}

// Refund возвращает клиенту ранее списанный депозит (полностью или частично)
func (c *Client) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	c.log.Info("Refund: payment_id=%s, amount=%d, operation_key=%s", req.PaymentID, req.Amount, req.OperationKey)

	var result RefundResult
	if err := c.postJSON(ctx, "/internal/payments/refund", req, req.OperationKey, &result, ErrRefundFailed); err != nil {
		return nil, err
	}

	c.log.Info("Refund: completed refund_id=%s, amount=%d", result.RefundID, result.Amount)
	return &result, nil
}

// postJSON выполняет POST-запрос с телом и ключом идемпотентности
// declinedErr возвращается на 402/422 от шлюза
func (c *Client) postJSON(ctx context.Context, path string, body interface{}, operationKey string, dest interface{}, declinedErr error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", operationKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Продолжаем обработку
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", declinedErr, string(body))
	case http.StatusNotFound:
		return ErrPaymentNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}
