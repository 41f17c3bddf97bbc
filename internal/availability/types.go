// Package availability computes and fetches bookable appointment slots for a
// team member: the per-day calendar model, the slot evaluator, the server-side
// service behind the availability endpoints and a typed HTTP client for them.
package availability

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/aesthetics-booking/internal/calendar"
)

// Status classifies a calendar day.
type Status string

const (
	StatusAvailable Status = "available"
	StatusFull      Status = "full"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusFull, StatusClosed:
		return true
	}
	return false
}

// WorkingHours is the open/close window of a team member on a date, "HH:MM".
type WorkingHours struct {
	Start string `json:"start" validate:"required,clock"`
	End   string `json:"end" validate:"required,clock"`
}

// Minutes returns the window as minutes since midnight.
func (w WorkingHours) Minutes() (start, end int, err error) {
	if start, err = ParseClock(w.Start); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(w.End); err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, ErrInvalidWorkingHours
	}
	return start, end, nil
}

// Day is one calendar date in an availability window.
type Day struct {
	Date         string        `json:"date"`
	Status       Status        `json:"status"`
	TimeSlots    []string      `json:"timeSlots"`
	AllSlots     []string      `json:"allSlots"`
	BookedSlots  []string      `json:"bookedSlots"`
	WorkingHours *WorkingHours `json:"workingHours,omitempty"`
}

// HasSlot reports whether start is one of the day's available slots.
func (d Day) HasSlot(start string) bool {
	for _, s := range d.TimeSlots {
		if s == start {
			return true
		}
	}
	return false
}

// Time parses the day's date in loc.
func (d Day) Time(loc *time.Location) (time.Time, error) {
	return calendar.ParseDate(d.Date, loc)
}

// Appointment is an existing booking that occupies part of a day.
type Appointment struct {
	Date            string
	Time            string
	DurationMinutes int
}

// RangeQuery asks for availability of one team member over an inclusive date range.
type RangeQuery struct {
	TeamMemberID    string
	StartDate       string
	EndDate         string
	DurationMinutes int
}

// Fetcher returns one Day per date of the query window, ordered by date.
type Fetcher interface {
	FetchRange(ctx context.Context, q RangeQuery) ([]Day, error)
}

var (
	// ErrInvalidClock is returned for times that are not HH:MM.
	ErrInvalidClock = errors.New("availability: invalid HH:MM time")
	// ErrInvalidWorkingHours is returned when the window closes before it opens.
	ErrInvalidWorkingHours = errors.New("availability: working hours end before start")
	// ErrInvalidQuery is returned for malformed availability queries.
	ErrInvalidQuery = errors.New("availability: invalid query")
	// ErrUnknownTeamMember is returned when no team member matches the query.
	ErrUnknownTeamMember = errors.New("availability: unknown team member")
	// ErrMalformedResponse is returned when the API response does not match the schema.
	ErrMalformedResponse = errors.New("availability: malformed response")
)
