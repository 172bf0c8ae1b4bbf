package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	t.Run("allowed transitions", func(t *testing.T) {
		cases := []struct {
			from  BookingStatus
			event TransitionEvent
			to    BookingStatus
		}{
			{StatusWaitingConfirmation, EventApprove, StatusConfirmed},
			{StatusWaitingConfirmation, EventReject, StatusRefundPending},
			{StatusWaitingConfirmation, EventTimeout, StatusRefundPending},
			{StatusRefundPending, EventRefundSettled, StatusRefunded},
			{StatusConfirmed, EventComplete, StatusCompleted},
			{StatusConfirmed, EventNoShow, StatusNoShow},
			{StatusConfirmed, EventCancelByCustomer, StatusCancelledByCustomer},
		}

		for _, tc := range cases {
			got, err := NextStatus(tc.from, tc.event)
			require.NoError(t, err, "%s + %s", tc.from, tc.event)
			assert.Equal(t, tc.to, got)
		}
	})

	t.Run("transitions outside the table fail", func(t *testing.T) {
		cases := []struct {
			from  BookingStatus
			event TransitionEvent
		}{
			{StatusConfirmed, EventApprove},
			{StatusConfirmed, EventReject},
			{StatusCompleted, EventComplete},
			{StatusRefunded, EventRefundSettled},
			{StatusWaitingConfirmation, EventComplete},
			{StatusNoShow, EventCancelByCustomer},
			{StatusCancelledByCustomer, EventApprove},
		}

		for _, tc := range cases {
			_, err := NextStatus(tc.from, tc.event)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s + %s", tc.from, tc.event)
			assert.Contains(t, err.Error(), string(tc.from))
			assert.Contains(t, err.Error(), string(tc.event))
		}
	})

	t.Run("no transition leaves a terminal status", func(t *testing.T) {
		terminal := []BookingStatus{StatusRejected, StatusRefunded, StatusCompleted, StatusNoShow, StatusCancelledByCustomer}
		events := []TransitionEvent{EventApprove, EventReject, EventTimeout, EventRefundSettled, EventComplete, EventNoShow, EventCancelByCustomer}

		for _, from := range terminal {
			require.True(t, from.IsTerminal())
			for _, event := range events {
				_, err := NextStatus(from, event)
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s + %s", from, event)
			}
		}
	})
}

func TestParseBookingStatus(t *testing.T) {
	for _, s := range []string{
		"draft", "requested", "deposit_paid", "waiting_confirmation", "confirmed",
		"rejected", "refund_pending", "refunded", "completed", "no_show", "cancelled_by_customer",
	} {
		got, err := ParseBookingStatus(s)
		require.NoError(t, err)
		assert.Equal(t, BookingStatus(s), got)
	}

	_, err := ParseBookingStatus("approved")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestBooking_Deadline(t *testing.T) {
	createdAt := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	booking := &Booking{Status: StatusWaitingConfirmation, CreatedAt: createdAt}

	assert.Equal(t, createdAt.Add(24*time.Hour), booking.ApprovalDeadline())

	t.Run("before the deadline", func(t *testing.T) {
		now := createdAt.Add(23 * time.Hour)
		assert.False(t, booking.IsExpired(now))
		assert.Equal(t, time.Hour, booking.TimeRemaining(now))
	})

	t.Run("exactly at the deadline", func(t *testing.T) {
		now := createdAt.Add(24 * time.Hour)
		assert.True(t, booking.IsExpired(now))
		assert.Equal(t, time.Duration(0), booking.TimeRemaining(now))
	})

	t.Run("past the deadline remaining is floored at zero", func(t *testing.T) {
		now := createdAt.Add(25 * time.Hour)
		assert.True(t, booking.IsExpired(now))
		assert.Equal(t, time.Duration(0), booking.TimeRemaining(now))
	})

	t.Run("urgency flag", func(t *testing.T) {
		assert.False(t, booking.IsUrgent(createdAt.Add(22*time.Hour)))
		assert.True(t, booking.IsUrgent(createdAt.Add(23*time.Hour+30*time.Minute)))

		confirmed := &Booking{Status: StatusConfirmed, CreatedAt: createdAt}
		assert.False(t, confirmed.IsUrgent(createdAt.Add(23*time.Hour+30*time.Minute)))
	})
}

func TestBooking_IsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusWaitingConfirmation}).IsActive())
	assert.True(t, (&Booking{Status: StatusConfirmed}).IsActive())

	for _, s := range []BookingStatus{StatusRefundPending, StatusRefunded, StatusCompleted, StatusNoShow, StatusCancelledByCustomer} {
		assert.False(t, (&Booking{Status: s}).IsActive(), "status %s", s)
	}
}
