package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday maps to itself", date(2025, time.June, 2), date(2025, time.June, 2)},
		{"wednesday", date(2025, time.June, 4), date(2025, time.June, 2)},
		{"saturday", date(2025, time.June, 7), date(2025, time.June, 2)},
		{"sunday belongs to the preceding monday", date(2025, time.June, 8), date(2025, time.June, 2)},
		{"month boundary", date(2025, time.July, 1), date(2025, time.June, 30)},
		{"year boundary", date(2026, time.January, 1), date(2025, time.December, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MondayOf(tt.in))
		})
	}
}

func TestMondayOf_Idempotent(t *testing.T) {
	for d := 0; d < 14; d++ {
		in := date(2025, time.June, 1).AddDate(0, 0, d)
		m := MondayOf(in)
		assert.Equal(t, m, MondayOf(m))
	}
}

func TestMondayOf_StripsTimeOfDay(t *testing.T) {
	in := time.Date(2025, time.June, 5, 17, 45, 12, 999, time.Local)
	m := MondayOf(in)
	assert.Equal(t, date(2025, time.June, 2), m)
}

func TestWeekdayNameAndIndex(t *testing.T) {
	monday := date(2025, time.June, 2)
	want := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		assert.Equal(t, want[i], WeekdayName(d))
		assert.Equal(t, i, WeekdayIndex(d))
	}
}

func TestFormatParseDate(t *testing.T) {
	d := date(2025, time.June, 2)
	assert.Equal(t, "2025-06-02", FormatDate(d))

	parsed, err := ParseDate("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDate("02/06/2025")
	assert.Error(t, err)
}

func TestAddWeeks(t *testing.T) {
	d := date(2025, time.June, 2)
	assert.Equal(t, date(2025, time.June, 9), AddWeeks(d, 1))
	assert.Equal(t, date(2025, time.May, 26), AddWeeks(d, -1))
	assert.Equal(t, d, AddWeeks(d, 0))
}
