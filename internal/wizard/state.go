// Package wizard holds the booking wizard: the order cart, the step state
// machine and a controller that keeps availability in sync with selections.
package wizard

import (
	"fmt"
	"strings"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/calendar"
)

// Step is one stage of the booking flow.
type Step int

const (
	StepServices Step = iota
	StepDate
	StepPreview
	StepPayment
)

var stepNames = [...]string{"services", "date", "preview", "payment"}

func (s Step) String() string {
	if s < StepServices || s > StepPayment {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// ParseStep maps a step name back to its Step.
func ParseStep(name string) (Step, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("wizard: unknown step %q", name)
}

// Contact is the customer information captured before payment.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// State is the complete wizard memory.
type State struct {
	Step         Step
	Cart         Cart
	TeamMemberID string
	SelectedDate string
	SelectedTime string
	Contact      Contact

	// Days is the loaded availability window for TeamMemberID and the cart's
	// total duration. Token identifies the request it must answer.
	Days            []availability.Day
	Loading         bool
	AvailabilityErr error
	Token           uint64
}

// Day returns the loaded day for a date.
func (s State) Day(date string) (availability.Day, bool) {
	for _, d := range s.Days {
		if d.Date == date {
			return d, true
		}
	}
	return availability.Day{}, false
}

// CanEnter reports whether every prerequisite of step holds.
func (s State) CanEnter(step Step) bool {
	switch step {
	case StepServices:
		return true
	case StepDate:
		return !s.Cart.Empty() && s.TeamMemberID != ""
	case StepPreview, StepPayment:
		return s.CanEnter(StepDate) && s.selectionFits()
	}
	return false
}

// Grid lays the loaded days out as a Monday-first calendar.
func (s State) Grid() []*availability.Day {
	if len(s.Days) == 0 {
		return []*availability.Day{}
	}
	first, err := s.Days[0].Time(nil)
	if err != nil {
		return []*availability.Day{}
	}
	return calendar.Layout(first, s.Days)
}

// Order assembles the booking request for the current selections.
func (s State) Order() Order {
	return Order{
		TeamMemberID:    s.TeamMemberID,
		Date:            s.SelectedDate,
		Time:            s.SelectedTime,
		Items:           s.Cart.Items(),
		DurationMinutes: s.Cart.TotalDuration(),
		Total:           s.Cart.TotalPrice(),
		Contact:         s.Contact,
	}
}

func (s State) selectionFits() bool {
	if s.SelectedDate == "" || s.SelectedTime == "" {
		return false
	}
	day, ok := s.Day(s.SelectedDate)
	if !ok || day.WorkingHours == nil {
		return false
	}
	return availability.IsSlotAvailable(s.SelectedTime, day.BookedSlots, *day.WorkingHours, s.Cart.TotalDuration())
}

// Order is what the wizard submits on the payment step.
type Order struct {
	TeamMemberID    string      `json:"team_member_id"`
	Date            string      `json:"date"`
	Time            string      `json:"time"`
	Items           []OrderItem `json:"items"`
	DurationMinutes int         `json:"duration_minutes"`
	Total           float64     `json:"total"`
	Contact         Contact     `json:"contact"`
}
