// Package calendar lays dates out on Monday-first, seven-column month grids.
package calendar

import "time"

// DaysPerWeek is the number of columns in a grid row.
const DaysPerWeek = 7

// DateLayout is the ISO date format used on the wire.
const DateLayout = "2006-01-02"

// LeadingPad returns how many empty cells precede a date in a Monday-first grid.
func LeadingPad(first time.Time) int {
	return (int(first.Weekday()) + 6) % DaysPerWeek
}

// Layout places consecutive items, the first of which falls on first, into a
// Monday-first grid. Empty cells are nil and the result length is a multiple of
// seven. The input slice is not modified; cells point into a private copy.
func Layout[T any](first time.Time, items []T) []*T {
	if len(items) == 0 {
		return []*T{}
	}
	pad := LeadingPad(first)
	total := pad + len(items)
	if rem := total % DaysPerWeek; rem != 0 {
		total += DaysPerWeek - rem
	}

	cells := make([]T, len(items))
	copy(cells, items)

	grid := make([]*T, total)
	for i := range cells {
		grid[pad+i] = &cells[i]
	}
	return grid
}

// Weeks splits a grid into rows of seven cells.
func Weeks[T any](grid []*T) [][]*T {
	rows := make([][]*T, 0, len(grid)/DaysPerWeek)
	for start := 0; start+DaysPerWeek <= len(grid); start += DaysPerWeek {
		rows = append(rows, grid[start:start+DaysPerWeek])
	}
	return rows
}

// Window returns n consecutive calendar dates starting at start (time of day dropped).
func Window(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	day := Midnight(start)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = day.AddDate(0, 0, i)
	}
	return out
}

// Between returns the inclusive list of dates from start to end.
func Between(start, end time.Time) []time.Time {
	start, end = Midnight(start), Midnight(end)
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// MonthDates returns every date of the month in loc.
func MonthDates(year int, month time.Month, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window(first, first.AddDate(0, 1, -1).Day())
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
