package domain

import "time"

// Money constants, currency minor units
const (
	// DepositAmount фиксированный депозит, списываемый при создании бронирования
	DepositAmount int64 = 20000

	// PlatformFee комиссия платформы, удерживаемая из депозита при выплате салону
	PlatformFee int64 = 2000
)

// Scheduling constants
const (
	// SlotDurationMinutes шаг сетки слотов
	SlotDurationMinutes = 30

	// ApprovalTTL окно, в течение которого салон должен подтвердить бронирование
	ApprovalTTL = 24 * time.Hour

	// UrgencyThreshold остаток времени, после которого бронирование помечается срочным
	UrgencyThreshold = time.Hour
)

// Business validation constants
const (
	MaxCustomerRequestLength = 500
	MaxRejectionReasonLength = 500
	MaxCustomerNameLength    = 100
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// TimeoutRejectionReason причина, записываемая при автоистечении окна подтверждения
const TimeoutRejectionReason = "timeout"

// ActiveStatuses статусы бронирований, занимающих слот
// Используются при подсчете доступности
var ActiveStatuses = []BookingStatus{
	StatusWaitingConfirmation,
	StatusConfirmed,
}
