package availability

import (
	"sort"
	"time"

	"github.com/wolfman30/aesthetics-booking/internal/calendar"
)

// DayInput carries everything needed to build one Day.
type DayInput struct {
	Date            string
	Hours           *WorkingHours
	Booked          []string
	DurationMinutes int
	// Now is the current time in the clinic's location. Slots that already
	// started are dropped; dates before Now are closed. Zero disables the check.
	Now time.Time
}

// BuildDay evaluates every hourly slot of a day against its bookings.
func BuildDay(in DayInput) Day {
	day := Day{
		Date:        in.Date,
		Status:      StatusClosed,
		TimeSlots:   []string{},
		AllSlots:    []string{},
		BookedSlots: normalizeSlots(in.Booked),
	}
	if in.Hours == nil {
		return day
	}
	hours := *in.Hours
	if _, _, err := hours.Minutes(); err != nil {
		return day
	}
	day.WorkingHours = &hours
	day.AllSlots = HourlySlots(hours)

	cutoff := -1
	if !in.Now.IsZero() {
		today := in.Now.Format(calendar.DateLayout)
		switch {
		case in.Date < today:
			day.Status = StatusClosed
			return day
		case in.Date == today:
			cutoff = in.Now.Hour()*60 + in.Now.Minute()
		}
	}

	for _, slot := range day.AllSlots {
		if cutoff >= 0 {
			if m, _ := ParseClock(slot); m < cutoff {
				continue
			}
		}
		if IsSlotAvailable(slot, day.BookedSlots, hours, in.DurationMinutes) {
			day.TimeSlots = append(day.TimeSlots, slot)
		}
	}
	if len(day.TimeSlots) > 0 {
		day.Status = StatusAvailable
	} else {
		day.Status = StatusFull
	}
	return day
}

// HourlySlots lists whole-hour start times inside the working hours.
func HourlySlots(hours WorkingHours) []string {
	open, closing, err := hours.Minutes()
	if err != nil {
		return []string{}
	}
	slots := []string{}
	for h := (open + 59) / 60; h*60 < closing && h < 24; h++ {
		slots = append(slots, FormatClock(h*60))
	}
	return slots
}

// BookedSlots expands appointments into the slot times they occupy: the start
// time itself plus every following whole hour the appointment overlaps.
func BookedSlots(appts []Appointment) []string {
	var out []string
	for _, a := range appts {
		start, err := ParseClock(a.Time)
		if err != nil {
			continue
		}
		out = append(out, FormatClock(start))
		end := start + a.DurationMinutes
		for h := start/60 + 1; h*60 < end && h < 24; h++ {
			out = append(out, FormatClock(h*60))
		}
	}
	return normalizeSlots(out)
}

// GroupByDate buckets appointments by their date.
func GroupByDate(appts []Appointment) map[string][]Appointment {
	out := make(map[string][]Appointment)
	for _, a := range appts {
		out[a.Date] = append(out[a.Date], a)
	}
	return out
}

func normalizeSlots(slots []string) []string {
	seen := make(map[int]struct{}, len(slots))
	minutes := make([]int, 0, len(slots))
	for _, s := range slots {
		m, err := ParseClock(s)
		if err != nil {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)
	out := make([]string, len(minutes))
	for i, m := range minutes {
		out[i] = FormatClock(m)
	}
	return out
}
