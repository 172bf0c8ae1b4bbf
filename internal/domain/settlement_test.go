package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSplit(t *testing.T) {
	t.Run("splits price into deposit and remaining", func(t *testing.T) {
		split, err := ComputeSplit(85000)
		require.NoError(t, err)
		assert.Equal(t, DepositAmount, split.Deposit)
		assert.Equal(t, int64(65000), split.Remaining)
		assert.Equal(t, int64(85000), split.Deposit+split.Remaining)
	})

	t.Run("price equal to deposit leaves zero remaining", func(t *testing.T) {
		split, err := ComputeSplit(DepositAmount)
		require.NoError(t, err)
		assert.Equal(t, int64(0), split.Remaining)
	})

	t.Run("price below deposit fails", func(t *testing.T) {
		_, err := ComputeSplit(DepositAmount - 1)
		assert.ErrorIs(t, err, ErrPriceBelowDeposit)
	})
}

func TestSettlementAmounts(t *testing.T) {
	assert.Equal(t, DepositAmount, RefundAmount())
	assert.Equal(t, DepositAmount-PlatformFee, PayoutAmount())
	assert.Positive(t, PayoutAmount())
}

func TestDayPartFor(t *testing.T) {
	assert.Equal(t, DayPartMorning, DayPartFor("09:00"))
	assert.Equal(t, DayPartMorning, DayPartFor("11:30"))
	assert.Equal(t, DayPartAfternoon, DayPartFor("12:00"))
	assert.Equal(t, DayPartAfternoon, DayPartFor("16:30"))
	assert.Equal(t, DayPartEvening, DayPartFor("17:00"))
	assert.Equal(t, DayPartEvening, DayPartFor("20:30"))
}
