package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadingPadMondayFirst(t *testing.T) {
	tests := []struct {
		date string
		pad  int
	}{
		{"2026-10-12", 0}, // Monday
		{"2026-10-14", 2}, // Wednesday
		{"2026-10-17", 5}, // Saturday
		{"2026-10-18", 6}, // Sunday
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.date, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.pad, LeadingPad(d), tt.date)
	}
}

func TestLayoutRollingWindow(t *testing.T) {
	first, err := ParseDate("2026-10-14", nil) // Wednesday
	require.NoError(t, err)

	days := make([]int, 30)
	for i := range days {
		days[i] = i + 1
	}

	grid := Layout(first, days)
	require.Len(t, grid, 35)
	assert.Nil(t, grid[0])
	assert.Nil(t, grid[1])
	require.NotNil(t, grid[2])
	assert.Equal(t, 1, *grid[2])
	assert.Equal(t, 30, *grid[31])
	for _, cell := range grid[32:] {
		assert.Nil(t, cell)
	}
	assert.Len(t, Weeks(grid), 5)
}

func TestLayoutSpillsToSixWeeks(t *testing.T) {
	first, err := ParseDate("2026-10-18", nil) // Sunday: six leading pads
	require.NoError(t, err)

	grid := Layout(first, make([]string, 30))
	assert.Len(t, grid, 42)
	assert.Equal(t, 0, len(grid)%DaysPerWeek)
}

func TestLayoutFirstNonNilColumnProperty(t *testing.T) {
	start, err := ParseDate("2026-01-01", nil)
	require.NoError(t, err)
	for offset := 0; offset < 14; offset++ {
		first := start.AddDate(0, 0, offset)
		for _, n := range []int{1, 7, 28, 30, 31} {
			grid := Layout(first, make([]int, n))
			require.Zero(t, len(grid)%DaysPerWeek)
			idx := -1
			for i, cell := range grid {
				if cell != nil {
					idx = i
					break
				}
			}
			assert.Equal(t, (int(first.Weekday())+6)%7, idx)
		}
	}
}

func TestLayoutDoesNotAliasInput(t *testing.T) {
	first, _ := ParseDate("2026-10-12", nil)
	items := []string{"a", "b"}
	grid := Layout(first, items)
	*grid[0] = "changed"
	assert.Equal(t, "a", items[0])
}

func TestLayoutEmpty(t *testing.T) {
	grid := Layout(time.Now(), []int(nil))
	assert.Empty(t, grid)
}

func TestMonthDatesAndBetween(t *testing.T) {
	feb := MonthDates(2028, time.February, time.UTC)
	assert.Len(t, feb, 29)
	assert.Equal(t, "2028-02-29", feb[28].Format(DateLayout))

	start, _ := ParseDate("2026-10-30", nil)
	end, _ := ParseDate("2026-11-02", nil)
	dates := Between(start, end)
	require.Len(t, dates, 4)
	assert.Equal(t, "2026-11-01", dates[2].Format(DateLayout))
	assert.Nil(t, Between(end, start))
}

func TestWindowDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	dates := Window(time.Date(2026, 3, 31, 22, 45, 0, 0, loc), 2)
	require.Len(t, dates, 2)
	assert.Equal(t, 0, dates[0].Hour())
	assert.Equal(t, "2026-04-01", dates[1].Format(DateLayout))
}
