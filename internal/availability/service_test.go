package availability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/aesthetics-booking/internal/observability/metrics"
)

type weekdaySchedule struct {
	loc   *time.Location
	hours map[time.Weekday]WorkingHours
}

func (s weekdaySchedule) Location() *time.Location { return s.loc }

func (s weekdaySchedule) HoursOn(date time.Time) *WorkingHours {
	h, ok := s.hours[date.Weekday()]
	if !ok {
		return nil
	}
	return &h
}

type stubSchedules struct {
	schedules map[string]Schedule
}

func (s stubSchedules) ScheduleFor(_ context.Context, id string) (Schedule, error) {
	sch, ok := s.schedules[id]
	if !ok {
		return nil, fmt.Errorf("clinic: %q: %w", id, ErrUnknownTeamMember)
	}
	return sch, nil
}

type stubAppointments struct {
	appts []Appointment
	err   error

	gotMember string
	gotStart  string
	gotEnd    string
}

func (s *stubAppointments) Appointments(_ context.Context, id, start, end string) ([]Appointment, error) {
	s.gotMember, s.gotStart, s.gotEnd = id, start, end
	return s.appts, s.err
}

func newTestService(t *testing.T, appts *stubAppointments) *Service {
	t.Helper()
	schedule := weekdaySchedule{
		loc: time.UTC,
		hours: map[time.Weekday]WorkingHours{
			time.Monday:    {Start: "09:00", End: "17:00"},
			time.Tuesday:   {Start: "09:00", End: "17:00"},
			time.Wednesday: {Start: "09:00", End: "17:00"},
		},
	}
	return NewService(ServiceConfig{
		Schedules:    stubSchedules{schedules: map[string]Schedule{"tm-1": schedule}},
		Appointments: appts,
		Metrics:      metrics.NewAvailabilityMetrics(prometheus.NewRegistry()),
		MaxRangeDays: 14,
		Now:          func() time.Time { return time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC) },
	})
}

func TestServiceRange_BuildsEveryDate(t *testing.T) {
	appts := &stubAppointments{appts: []Appointment{
		{Date: "2026-10-13", Time: "10:00", DurationMinutes: 60},
	}}
	svc := newTestService(t, appts)

	days, err := svc.Range(context.Background(), RangeQuery{
		TeamMemberID:    "tm-1",
		StartDate:       "2026-10-12",
		EndDate:         "2026-10-18",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, days, 7)

	assert.Equal(t, "tm-1", appts.gotMember)
	assert.Equal(t, "2026-10-12", appts.gotStart)
	assert.Equal(t, "2026-10-18", appts.gotEnd)

	assert.Equal(t, "2026-10-12", days[0].Date)
	assert.Equal(t, StatusAvailable, days[0].Status)
	assert.False(t, days[1].HasSlot("10:00"))
	assert.True(t, days[1].HasSlot("11:00"))
	assert.Equal(t, []string{"10:00"}, days[1].BookedSlots)
	assert.Equal(t, StatusClosed, days[3].Status)
	assert.Equal(t, StatusClosed, days[6].Status)
}

func TestServiceRange_Validation(t *testing.T) {
	svc := newTestService(t, &stubAppointments{})
	ctx := context.Background()

	cases := []RangeQuery{
		{TeamMemberID: "tm-1", StartDate: "2026-10-12", EndDate: "2026-10-11", DurationMinutes: 60},
		{TeamMemberID: "tm-1", StartDate: "10/12/2026", EndDate: "2026-10-13", DurationMinutes: 60},
		{TeamMemberID: "tm-1", StartDate: "2026-10-12", EndDate: "2026-10-13", DurationMinutes: 0},
		{TeamMemberID: "tm-1", StartDate: "2026-10-01", EndDate: "2026-10-31", DurationMinutes: 60},
	}
	for i, q := range cases {
		_, err := svc.Range(ctx, q)
		if !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("case %d: expected ErrInvalidQuery, got %v", i, err)
		}
	}
}

func TestServiceRange_UnknownMember(t *testing.T) {
	svc := newTestService(t, &stubAppointments{})
	_, err := svc.Range(context.Background(), RangeQuery{
		TeamMemberID: "ghost", StartDate: "2026-10-12", EndDate: "2026-10-12", DurationMinutes: 60,
	})
	require.ErrorIs(t, err, ErrUnknownTeamMember)
}

func TestServiceRange_AppointmentError(t *testing.T) {
	svc := newTestService(t, &stubAppointments{err: errors.New("db down")})
	_, err := svc.Range(context.Background(), RangeQuery{
		TeamMemberID: "tm-1", StartDate: "2026-10-12", EndDate: "2026-10-12", DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestServiceDay(t *testing.T) {
	svc := newTestService(t, &stubAppointments{})
	day, err := svc.Day(context.Background(), "tm-1", "2026-10-14", 120)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", day.Date)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00"}, day.TimeSlots)
}
