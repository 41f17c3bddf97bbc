package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/aesthetics-booking/internal/calendar"
	"github.com/wolfman30/aesthetics-booking/internal/observability/metrics"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

var availabilityTracer = otel.Tracer("clinic.internal.availability")

// DefaultMaxRangeDays bounds the range endpoint when no limit is configured.
const DefaultMaxRangeDays = 62

// Schedule resolves the working hours of one team member.
type Schedule interface {
	Location() *time.Location
	HoursOn(date time.Time) *WorkingHours
}

// ScheduleProvider looks up a team member's schedule. Unknown members yield
// an error wrapping ErrUnknownTeamMember.
type ScheduleProvider interface {
	ScheduleFor(ctx context.Context, teamMemberID string) (Schedule, error)
}

// AppointmentSource lists active appointments of a team member between two
// inclusive YYYY-MM-DD dates.
type AppointmentSource interface {
	Appointments(ctx context.Context, teamMemberID, startDate, endDate string) ([]Appointment, error)
}

// ServiceConfig wires the availability service.
type ServiceConfig struct {
	Schedules    ScheduleProvider
	Appointments AppointmentSource
	Metrics      *metrics.AvailabilityMetrics
	Logger       *logging.Logger
	MaxRangeDays int
	Now          func() time.Time
}

// Service computes availability from working hours and existing bookings.
type Service struct {
	schedules    ScheduleProvider
	appointments AppointmentSource
	metrics      *metrics.AvailabilityMetrics
	logger       *logging.Logger
	maxRangeDays int
	now          func() time.Time
}

// NewService constructs an availability service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Schedules == nil || cfg.Appointments == nil {
		panic("availability: schedules and appointments required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = DefaultMaxRangeDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		schedules:    cfg.Schedules,
		appointments: cfg.Appointments,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		maxRangeDays: cfg.MaxRangeDays,
		now:          cfg.Now,
	}
}

// FetchRange implements Fetcher in-process.
func (s *Service) FetchRange(ctx context.Context, q RangeQuery) ([]Day, error) {
	return s.Range(ctx, q)
}

// Range returns one Day per date in the query window.
func (s *Service) Range(ctx context.Context, q RangeQuery) (days []Day, err error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.range")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.team_member_id", q.TeamMemberID),
		attribute.String("clinic.start_date", q.StartDate),
		attribute.String("clinic.end_date", q.EndDate),
		attribute.Int("clinic.duration_minutes", q.DurationMinutes),
	)
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		s.metrics.ObserveRequest("range", err, time.Since(started).Seconds())
	}()

	schedule, err := s.schedules.ScheduleFor(ctx, q.TeamMemberID)
	if err != nil {
		return nil, err
	}
	loc := schedule.Location()
	if loc == nil {
		loc = time.UTC
	}

	dates, err := s.window(q, loc)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.Appointments(ctx, q.TeamMemberID, q.StartDate, q.EndDate)
	if err != nil {
		return nil, fmt.Errorf("availability: load appointments: %w", err)
	}
	byDate := GroupByDate(appts)
	now := s.now().In(loc)

	days = make([]Day, 0, len(dates))
	for _, d := range dates {
		key := d.Format(calendar.DateLayout)
		day := BuildDay(DayInput{
			Date:            key,
			Hours:           schedule.HoursOn(d),
			Booked:          BookedSlots(byDate[key]),
			DurationMinutes: q.DurationMinutes,
			Now:             now,
		})
		s.metrics.ObserveDay(string(day.Status))
		days = append(days, day)
	}

	s.logger.Debug("availability computed",
		"team_member_id", q.TeamMemberID,
		"start_date", q.StartDate,
		"end_date", q.EndDate,
		"days", len(days),
	)
	return days, nil
}

// Day returns availability for a single date.
func (s *Service) Day(ctx context.Context, teamMemberID, date string, durationMinutes int) (Day, error) {
	days, err := s.Range(ctx, RangeQuery{
		TeamMemberID:    teamMemberID,
		StartDate:       date,
		EndDate:         date,
		DurationMinutes: durationMinutes,
	})
	if err != nil {
		return Day{}, err
	}
	return days[0], nil
}

func (s *Service) window(q RangeQuery, loc *time.Location) ([]time.Time, error) {
	if strings.TrimSpace(q.TeamMemberID) == "" {
		return nil, fmt.Errorf("%w: team_member_id required", ErrInvalidQuery)
	}
	if q.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: service_duration_minutes must be positive", ErrInvalidQuery)
	}
	start, err := calendar.ParseDate(q.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrInvalidQuery, err)
	}
	end, err := calendar.ParseDate(q.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", ErrInvalidQuery, err)
	}
	dates := calendar.Between(start, end)
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidQuery)
	}
	if len(dates) > s.maxRangeDays {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidQuery, s.maxRangeDays)
	}
	return dates, nil
}
