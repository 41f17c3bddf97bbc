package wizard

import (
	"fmt"
	"strings"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

// Action is an input to the wizard state machine.
type Action interface {
	action()
}

type (
	AddService       struct{ Item OrderItem }
	IncrementService struct{ ServiceID string }
	DecrementService struct{ ServiceID string }
	RemoveService    struct{ ServiceID string }
	SelectTeamMember struct{ TeamMemberID string }
	SelectDate       struct{ Date string }
	SelectTime       struct{ Time string }
	SetContact       struct{ Contact Contact }
	ToggleStep       struct{ Step Step }
	Next             struct{}
	// RefreshAvailability re-requests the current window, e.g. after a failure.
	RefreshAvailability struct{}
	// AvailabilityLoaded delivers the result of the Refetch carrying Token.
	AvailabilityLoaded struct {
		Token uint64
		Days  []availability.Day
	}
	AvailabilityFailed struct {
		Token uint64
		Err   error
	}
)

func (AddService) action()          {}
func (IncrementService) action()    {}
func (DecrementService) action()    {}
func (RemoveService) action()       {}
func (SelectTeamMember) action()    {}
func (SelectDate) action()          {}
func (SelectTime) action()          {}
func (SetContact) action()          {}
func (ToggleStep) action()          {}
func (Next) action()                {}
func (RefreshAvailability) action() {}
func (AvailabilityLoaded) action()  {}
func (AvailabilityFailed) action()  {}

// Effect is work the caller must perform after a transition.
type Effect interface {
	effect()
}

// Refetch asks for availability of TeamMemberID for appointments of
// DurationMinutes. The result must be dispatched with the same Token.
type Refetch struct {
	Token           uint64
	TeamMemberID    string
	DurationMinutes int
}

func (Refetch) effect() {}

// Reduce applies action to s. On error the returned state equals s.
func Reduce(s State, a Action) (State, []Effect, error) {
	switch a := a.(type) {
	case AddService:
		next, err := s.Cart.Add(a.Item)
		if err != nil {
			return s, nil, err
		}
		if err := s.checkClosing(next); err != nil {
			return s, nil, err
		}
		return s.withCart(next)

	case IncrementService:
		next, err := s.Cart.Increment(a.ServiceID)
		if err != nil {
			return s, nil, err
		}
		if err := s.checkClosing(next); err != nil {
			return s, nil, err
		}
		return s.withCart(next)

	case DecrementService:
		next, err := s.Cart.Decrement(a.ServiceID)
		if err != nil {
			return s, nil, err
		}
		return s.withCart(next)

	case RemoveService:
		next, err := s.Cart.Remove(a.ServiceID)
		if err != nil {
			return s, nil, err
		}
		return s.withCart(next)

	case SelectTeamMember:
		id := strings.TrimSpace(a.TeamMemberID)
		if id == s.TeamMemberID {
			return s, nil, nil
		}
		s.TeamMemberID = id
		next, effects := s.invalidate()
		return next, effects, nil

	case SelectDate:
		if !s.CanEnter(StepDate) {
			return s, nil, ErrStepLocked
		}
		day, ok := s.Day(a.Date)
		if !ok || day.Status != availability.StatusAvailable {
			return s, nil, fmt.Errorf("%w: %s", ErrDateUnavailable, a.Date)
		}
		if s.SelectedDate != a.Date {
			s.SelectedTime = ""
		}
		s.SelectedDate = a.Date
		if s.Step < StepDate {
			s.Step = StepDate
		}
		return s, nil, nil

	case SelectTime:
		if s.SelectedDate == "" {
			return s, nil, fmt.Errorf("%w: no date selected", ErrSlotUnavailable)
		}
		day, _ := s.Day(s.SelectedDate)
		if !day.HasSlot(a.Time) || day.WorkingHours == nil ||
			!availability.IsSlotAvailable(a.Time, day.BookedSlots, *day.WorkingHours, s.Cart.TotalDuration()) {
			return s, nil, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, s.SelectedDate, a.Time)
		}
		s.SelectedTime = a.Time
		return s, nil, nil

	case SetContact:
		c := a.Contact
		c.Name = strings.TrimSpace(c.Name)
		c.Email = strings.TrimSpace(c.Email)
		s.Contact = c
		return s, nil, nil

	case ToggleStep:
		if a.Step < StepServices || a.Step > StepPayment {
			return s, nil, fmt.Errorf("%w: %s", ErrStepLocked, a.Step)
		}
		if a.Step > s.Step && !s.CanEnter(a.Step) {
			return s, nil, fmt.Errorf("%w: %s", ErrStepLocked, a.Step)
		}
		s.Step = a.Step
		return s, nil, nil

	case Next:
		if s.Step == StepPayment {
			return s, nil, fmt.Errorf("%w: already on %s", ErrStepLocked, StepPayment)
		}
		target := s.Step + 1
		if !s.CanEnter(target) {
			return s, nil, fmt.Errorf("%w: %s", ErrStepLocked, target)
		}
		s.Step = target
		return s, nil, nil

	case RefreshAvailability:
		if !s.CanEnter(StepDate) {
			return s, nil, ErrStepLocked
		}
		s.Token++
		s.Loading = true
		s.AvailabilityErr = nil
		return s, []Effect{s.refetch()}, nil

	case AvailabilityLoaded:
		if a.Token != s.Token {
			return s, nil, nil
		}
		s.Days = a.Days
		s.Loading = false
		s.AvailabilityErr = nil
		return s, nil, nil

	case AvailabilityFailed:
		if a.Token != s.Token {
			return s, nil, nil
		}
		s.Loading = false
		s.AvailabilityErr = a.Err
		return s, nil, nil
	}
	return s, nil, fmt.Errorf("%w: %T", ErrUnknownAction, a)
}

// checkClosing rejects cart changes that would push an already chosen time
// past the selected day's closing.
func (s State) checkClosing(next Cart) error {
	if s.SelectedDate == "" || s.SelectedTime == "" {
		return nil
	}
	day, ok := s.Day(s.SelectedDate)
	if !ok || day.WorkingHours == nil {
		return nil
	}
	if !availability.EndsBeforeClose(s.SelectedTime, *day.WorkingHours, next.TotalDuration()) {
		return ErrExceedsWorkingHours
	}
	return nil
}

func (s State) withCart(next Cart) (State, []Effect, error) {
	changed := next.TotalDuration() != s.Cart.TotalDuration()
	s.Cart = next
	if !changed {
		return s, nil, nil
	}
	out, effects := s.invalidate()
	return out, effects, nil
}

// invalidate drops every selection derived from the team member and total
// duration and requests fresh availability when possible.
func (s State) invalidate() (State, []Effect) {
	s.SelectedDate = ""
	s.SelectedTime = ""
	s.Days = nil
	s.AvailabilityErr = nil
	s.Token++

	switch {
	case s.Step >= StepDate && !s.CanEnter(StepDate):
		s.Step = StepServices
	case s.Step > StepDate:
		s.Step = StepDate
	}

	if !s.CanEnter(StepDate) {
		s.Loading = false
		return s, nil
	}
	s.Loading = true
	return s, []Effect{s.refetch()}
}

func (s State) refetch() Refetch {
	return Refetch{
		Token:           s.Token,
		TeamMemberID:    s.TeamMemberID,
		DurationMinutes: s.Cart.TotalDuration(),
	}
}
