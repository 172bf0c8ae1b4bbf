package domain

import (
	"fmt"
	"time"
)

// SettlementKind вид денежного движения по бронированию
type SettlementKind string

const (
	// SettlementRefund возврат депозита клиенту
	SettlementRefund SettlementKind = "refund"

	// SettlementPayout выплата депозита салону за вычетом комиссии
	SettlementPayout SettlementKind = "payout"
)

// SettlementReason бизнес-причина движения денег
type SettlementReason string

const (
	ReasonRejected            SettlementReason = "rejected"
	ReasonTimeout             SettlementReason = "timeout"
	ReasonCancelledByCustomer SettlementReason = "cancelled_by_customer"
	ReasonCompleted           SettlementReason = "completed"
	ReasonNoShow              SettlementReason = "no_show"
)

// Settlement запись о движении депозита по бронированию
// Таблица append-only: записи никогда не обновляются и не удаляются,
// уникальность по booking_id гарантирует ровно одно движение на бронирование
type Settlement struct {
	ID           int64
	BookingID    int64
	Kind         SettlementKind
	Reason       SettlementReason
	Amount       int64
	OperationKey string // ключ идемпотентности операции в платежном шлюзе
	CreatedAt    time.Time
}

// MoneySplit разбиение полной цены услуги на депозит и остаток
type MoneySplit struct {
	Deposit   int64
	Remaining int64
}

// ComputeSplit splits a service price into the fixed deposit and the amount
// due at the venue. The invariant Deposit+Remaining == totalPrice holds by
// construction.
func ComputeSplit(totalPrice int64) (MoneySplit, error) {
	if totalPrice < DepositAmount {
		return MoneySplit{}, fmt.Errorf("%w: total=%d, deposit=%d", ErrPriceBelowDeposit, totalPrice, DepositAmount)
	}
	return MoneySplit{
		Deposit:   DepositAmount,
		Remaining: totalPrice - DepositAmount,
	}, nil
}

// RefundAmount returns the amount refunded to the customer on rejection,
// timeout or customer cancellation: always the full deposit.
func RefundAmount() int64 {
	return DepositAmount
}

// PayoutAmount returns the amount paid out to the salon on completion or
// no-show: the deposit minus the platform fee. The remaining price is paid
// at the venue and is not moved by this core.
func PayoutAmount() int64 {
	return DepositAmount - PlatformFee
}
