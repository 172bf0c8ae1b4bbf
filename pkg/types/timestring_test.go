package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	t.Run("valid time", func(t *testing.T) {
		ts, err := NewTimeStringFromString("09:30")
		require.NoError(t, err)
		assert.Equal(t, "09:30", ts.String())
	})

	t.Run("invalid format", func(t *testing.T) {
		for _, s := range []string{"9:30", "09-30", "abcde", "", "25:00", "10:61"} {
			_, err := NewTimeStringFromString(s)
			assert.ErrorIs(t, err, ErrInvalidTimeString, "input %q", s)
		}
	})
}

func TestTimeString_AddMinutes(t *testing.T) {
	ts := TimeString("10:00")

	got, err := ts.AddMinutes(90)
	require.NoError(t, err)
	assert.Equal(t, TimeString("11:30"), got)

	// Выход за пределы суток допустим для внутренних сравнений
	late := TimeString("23:30")
	got, err = late.AddMinutes(60)
	require.NoError(t, err)
	assert.Equal(t, TimeString("24:30"), got)
}

func TestTimeString_Compare(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("09:01"))
	assert.False(t, TimeString("09:01").IsBefore("09:01"))
	assert.True(t, TimeString("17:00").IsAfter("12:00"))
	assert.True(t, TimeString("24:30").IsAfter("23:59"))
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("14:00:00"))
	assert.Equal(t, TimeString("14:00"), ts)

	require.NoError(t, ts.Scan([]byte("08:15")))
	assert.Equal(t, TimeString("08:15"), ts)

	require.NoError(t, ts.Scan(time.Date(2025, 1, 20, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("14:30"), ts)
}
