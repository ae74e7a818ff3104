package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		instant time.Time
		want    string
	}{
		{"utc 18:29 is still the same local day", time.Date(2026, 1, 1, 18, 29, 59, 0, time.UTC), "2026-01-01"},
		{"utc 18:30 is local midnight", time.Date(2026, 1, 1, 18, 30, 0, 0, time.UTC), "2026-01-02"},
		{"early utc morning", time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC), "2026-03-10"},
		{"year rollover", time.Date(2025, 12, 31, 19, 0, 0, 0, time.UTC), "2026-01-01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, DayOf(tc.instant, DefaultOffsetMinutes))
		})
	}
}

func TestDayOf_StableWithinDay(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)
	want := DayOf(start, DefaultOffsetMinutes)
	for m := 0; m < 24*60; m += 7 {
		got := DayOf(start.Add(time.Duration(m)*time.Minute), DefaultOffsetMinutes)
		require.Equal(t, want, got, "minute %d", m)
	}
	assert.Greater(t, DayOf(start.Add(24*time.Hour), DefaultOffsetMinutes), want)
}

func TestZone_CustomOffset(t *testing.T) {
	t.Parallel()

	instant := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-02", DayOf(instant, 60))
	assert.Equal(t, "2026-01-01", DayOf(instant, -300))
	assert.Equal(t, "2026-01-01", DayOf(instant, 0))
}

func TestBucketer(t *testing.T) {
	t.Parallel()

	b := Default()
	instant := time.Date(2026, 10, 17, 20, 15, 0, 0, time.UTC) // 01:45 local on the 18th
	assert.Equal(t, "2026-10-18", b.Day(instant))
	assert.Equal(t, 1, b.Hour(instant))
	assert.Equal(t, time.Sunday, b.Weekday(instant))
	assert.Equal(t, DefaultOffsetMinutes, b.OffsetMinutes())

	start, err := b.StartOfDay("2026-10-18")
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2026, 10, 17, 18, 30, 0, 0, time.UTC)))

	var zero Bucketer
	assert.Equal(t, "2026-10-18", zero.Day(instant))
}

func TestDayArithmetic(t *testing.T) {
	t.Parallel()

	next, err := AddDays("2024-02-28", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", next)

	prev, err := AddDays("2026-01-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", prev)

	n, err := DaysBetween("2025-12-30", "2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = AddDays("2026-13-01", 1)
	assert.ErrorIs(t, err, ErrInvalidDay)
	assert.False(t, ValidDay("20260101"))
	assert.True(t, ValidDay("2026-01-01"))
}

func TestISOWeek(t *testing.T) {
	t.Parallel()

	year, week, err := ISOWeek("2027-01-01")
	require.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 53, week)
	assert.Equal(t, "2026-W53", WeekLabel(year, week))

	monday, err := WeekStart("2027-01-03")
	require.NoError(t, err)
	assert.Equal(t, "2026-12-28", monday)

	monday, err = WeekStart("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", monday)
}

func TestMonthBounds(t *testing.T) {
	t.Parallel()

	first, last := MonthBounds(2024, time.February)
	assert.Equal(t, "2024-02-01", first)
	assert.Equal(t, "2024-02-29", last)
}
