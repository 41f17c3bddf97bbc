package wizard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

var nineToFive = &availability.WorkingHours{Start: "09:00", End: "17:00"}

func testDays() []availability.Day {
	return []availability.Day{
		availability.BuildDay(availability.DayInput{Date: "2026-10-12", Hours: nineToFive, DurationMinutes: 60}),
		availability.BuildDay(availability.DayInput{Date: "2026-10-13", Hours: nineToFive, Booked: []string{"11:00"}, DurationMinutes: 60}),
		availability.BuildDay(availability.DayInput{Date: "2026-10-18", DurationMinutes: 60}),
	}
}

func mustReduce(t *testing.T, s State, a Action) (State, []Effect) {
	t.Helper()
	next, effects, err := Reduce(s, a)
	require.NoError(t, err, "action %T", a)
	return next, effects
}

// readyState returns a state on the date step with availability loaded for member.
func readyState(t *testing.T, member string) State {
	t.Helper()
	s, _ := mustReduce(t, State{}, AddService{Item: OrderItem{ServiceID: "botox", Name: "Botox", Price: 300, Duration: 60}})
	s, effects := mustReduce(t, s, SelectTeamMember{TeamMemberID: member})
	require.Len(t, effects, 1)
	r := effects[0].(Refetch)
	s, _ = mustReduce(t, s, AvailabilityLoaded{Token: r.Token, Days: testDays()})
	return s
}

func TestToggleStepLockedWithoutPrerequisites(t *testing.T) {
	s := State{}
	next, effects, err := Reduce(s, ToggleStep{Step: StepPayment})
	require.ErrorIs(t, err, ErrStepLocked)
	assert.Empty(t, effects)
	assert.Equal(t, StepServices, next.Step)
}

func TestToggleStepBackwardsAlwaysAllowed(t *testing.T) {
	s := readyState(t, "tm-a")
	s, _ = mustReduce(t, s, SelectDate{Date: "2026-10-12"})
	s, _ = mustReduce(t, s, SelectTime{Time: "10:00"})
	s, _ = mustReduce(t, s, ToggleStep{Step: StepPayment})
	require.Equal(t, StepPayment, s.Step)

	s, _ = mustReduce(t, s, ToggleStep{Step: StepServices})
	assert.Equal(t, StepServices, s.Step)
	s, _ = mustReduce(t, s, ToggleStep{Step: StepPreview})
	assert.Equal(t, StepPreview, s.Step)
}

func TestSwitchingTeamMemberClearsSelection(t *testing.T) {
	s := readyState(t, "tm-a")
	s, _ = mustReduce(t, s, SelectDate{Date: "2026-10-12"})
	s, _ = mustReduce(t, s, SelectTime{Time: "10:00"})
	prevToken := s.Token

	s, effects := mustReduce(t, s, SelectTeamMember{TeamMemberID: "tm-b"})
	assert.Equal(t, "", s.SelectedDate)
	assert.Equal(t, "", s.SelectedTime)
	assert.Nil(t, s.Days)
	assert.True(t, s.Loading)
	require.Len(t, effects, 1)
	assert.Equal(t, Refetch{Token: prevToken + 1, TeamMemberID: "tm-b", DurationMinutes: 60}, effects[0])
}

func TestStaleAvailabilityIgnored(t *testing.T) {
	s := readyState(t, "tm-a")
	stale := s.Token
	s, _ = mustReduce(t, s, SelectTeamMember{TeamMemberID: "tm-b"})

	before := s
	after, effects := mustReduce(t, s, AvailabilityLoaded{Token: stale, Days: testDays()})
	assert.Empty(t, effects)
	assert.Equal(t, before, after)

	after, _ = mustReduce(t, s, AvailabilityFailed{Token: stale, Err: errors.New("late")})
	assert.Equal(t, before, after)
}

func TestAvailabilityFailedRecordsError(t *testing.T) {
	s := State{}
	s, _ = mustReduce(t, s, AddService{Item: OrderItem{ServiceID: "botox", Duration: 60}})
	s, _ = mustReduce(t, s, SelectTeamMember{TeamMemberID: "tm-a"})
	boom := errors.New("boom")
	s, _ = mustReduce(t, s, AvailabilityFailed{Token: s.Token, Err: boom})
	assert.False(t, s.Loading)
	assert.ErrorIs(t, s.AvailabilityErr, boom)

	s, effects := mustReduce(t, s, RefreshAvailability{})
	assert.True(t, s.Loading)
	assert.Nil(t, s.AvailabilityErr)
	require.Len(t, effects, 1)
}

func TestDurationChangeFallsBackToDateStep(t *testing.T) {
	s := readyState(t, "tm-a")
	s, _ = mustReduce(t, s, SelectDate{Date: "2026-10-12"})
	s, _ = mustReduce(t, s, SelectTime{Time: "10:00"})
	s, _ = mustReduce(t, s, Next{})
	require.Equal(t, StepPreview, s.Step)

	s, effects := mustReduce(t, s, IncrementService{ServiceID: "botox"})
	assert.Equal(t, StepDate, s.Step)
	assert.Empty(t, s.SelectedTime)
	require.Len(t, effects, 1)
	assert.Equal(t, 120, effects[0].(Refetch).DurationMinutes)
}

func TestEmptyingCartFallsBackToServices(t *testing.T) {
	s := readyState(t, "tm-a")
	s, _ = mustReduce(t, s, SelectDate{Date: "2026-10-12"})
	require.Equal(t, StepDate, s.Step)

	s, effects := mustReduce(t, s, DecrementService{ServiceID: "botox"})
	assert.True(t, s.Cart.Empty())
	assert.Equal(t, StepServices, s.Step)
	assert.False(t, s.Loading)
	assert.Empty(t, effects)
}

func TestAddServicePastClosingRejected(t *testing.T) {
	s := readyState(t, "tm-a")
	s, _ = mustReduce(t, s, SelectDate{Date: "2026-10-12"})
	s, _ = mustReduce(t, s, SelectTime{Time: "15:00"})

	next, effects, err := Reduce(s, AddService{Item: OrderItem{ServiceID: "filler", Price: 500, Duration: 90}})
	require.ErrorIs(t, err, ErrExceedsWorkingHours)
	assert.Empty(t, effects)
	assert.Equal(t, s, next)
	assert.Equal(t, "15:00", next.SelectedTime)
}

func TestSelectDateAndTimeValidation(t *testing.T) {
	s := readyState(t, "tm-a")

	_, _, err := Reduce(s, SelectDate{Date: "2026-10-18"})
	assert.ErrorIs(t, err, ErrDateUnavailable)
	_, _, err = Reduce(s, SelectTime{Time: "10:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	s, _ = mustReduce(t, s, SelectDate{Date: "2026-10-13"})
	_, _, err = Reduce(s, SelectTime{Time: "11:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	_, _, err = Reduce(s, SelectTime{Time: "16:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	s, _ = mustReduce(t, s, SelectTime{Time: "12:00"})
	assert.True(t, s.CanEnter(StepPreview))
}

func TestNextWalksTheFlow(t *testing.T) {
	s := State{}
	_, _, err := Reduce(s, Next{})
	require.ErrorIs(t, err, ErrStepLocked)

	s = readyState(t, "tm-a")
	s, _ = mustReduce(t, s, ToggleStep{Step: StepServices})
	s, _ = mustReduce(t, s, Next{})
	require.Equal(t, StepDate, s.Step)
	_, _, err = Reduce(s, Next{})
	require.ErrorIs(t, err, ErrStepLocked)

	s, _ = mustReduce(t, s, SelectDate{Date: "2026-10-12"})
	s, _ = mustReduce(t, s, SelectTime{Time: "09:00"})
	s, _ = mustReduce(t, s, Next{})
	s, _ = mustReduce(t, s, Next{})
	require.Equal(t, StepPayment, s.Step)
	_, _, err = Reduce(s, Next{})
	require.ErrorIs(t, err, ErrStepLocked)

	order := s.Order()
	assert.Equal(t, "tm-a", order.TeamMemberID)
	assert.Equal(t, "2026-10-12", order.Date)
	assert.Equal(t, "09:00", order.Time)
	assert.Equal(t, 60, order.DurationMinutes)
	assert.Equal(t, 300.0, order.Total)
}

func TestGridLayout(t *testing.T) {
	s := readyState(t, "tm-a")
	grid := s.Grid()
	require.Len(t, grid, 7)
	require.NotNil(t, grid[0])
	assert.Equal(t, "2026-10-12", grid[0].Date)
	assert.Nil(t, grid[3])
}

func TestParseStep(t *testing.T) {
	step, err := ParseStep(" Preview ")
	require.NoError(t, err)
	assert.Equal(t, StepPreview, step)
	_, err = ParseStep("done")
	assert.Error(t, err)
}
