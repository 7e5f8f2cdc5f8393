package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMinute(t *testing.T) {
	tests := []struct {
		slot string
		want int
		ok   bool
	}{
		{"09:00-09:30", 540, true},
		{"00:00-00:30", 0, true},
		{"23:30-23:59", 1410, true},
		{"9:05-9:35", 545, true},
		{"morning", 0, false},
		{"25:00-25:30", 0, false},
		{"10:75-11:00", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := startMinute(tt.slot)
		require.Equal(t, tt.ok, ok, "slot %q", tt.slot)
		if ok {
			assert.Equal(t, tt.want, got, "slot %q", tt.slot)
		}
	}
}

func TestSortSlots(t *testing.T) {
	slots := []string{"14:00-14:30", "09:00-09:30", "10:30-11:00", "09:30-10:00"}
	sortSlots(slots)
	assert.Equal(t, []string{"09:00-09:30", "09:30-10:00", "10:30-11:00", "14:00-14:30"}, slots)
}

func TestSortSlotsMalformedLast(t *testing.T) {
	slots := []string{"garbage", "14:00-14:30", "also-bad", "09:00-09:30"}
	sortSlots(slots)
	// Well-formed entries first, malformed keep their relative order after.
	assert.Equal(t, []string{"09:00-09:30", "14:00-14:30", "garbage", "also-bad"}, slots)
}

func TestSortDatesAcrossMonthBoundary(t *testing.T) {
	// A lexical sort would already get these right; the month-boundary pair
	// below is where parsed ordering actually matters for non-ISO input, and
	// the year boundary exercises the same property.
	dates := []string{"2025-03-02", "2025-02-28", "2025-03-01", "2024-12-31", "2025-01-01"}
	sortDates(dates)
	assert.Equal(t, []string{"2024-12-31", "2025-01-01", "2025-02-28", "2025-03-01", "2025-03-02"}, dates)
}

func TestSortDatesUnparseableLast(t *testing.T) {
	dates := []string{"not-a-date", "2025-01-15", "2025-01-02"}
	sortDates(dates)
	assert.Equal(t, []string{"2025-01-02", "2025-01-15", "not-a-date"}, dates)
}
