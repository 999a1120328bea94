package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	in := time.Date(2024, 1, 10, 23, 45, 12, 99, loc)

	got := Day(in)

	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), got)
	assert.Nil(t, DayPtr(nil))
	assert.Equal(t, got, *DayPtr(&in))
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	// 20:00 UTC is already the next day at +5:30.
	now := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), Today(now, loc))
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		raw     string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "hours and minutes", raw: "09:00", want: "09:00"},
		{name: "seconds are dropped", raw: "18:30:59", want: "18:30"},
		{name: "surrounding spaces", raw: " 07:05 ", want: "07:05"},
		{name: "blank is no reminder", raw: "  ", wantNil: true},
		{name: "garbage", raw: "9am", wantErr: true},
		{name: "out of range", raw: "25:00", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidReminderTime)
				return
			}
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}
