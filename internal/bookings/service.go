package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/calendar"
	"github.com/wolfman30/aesthetics-booking/internal/customers"
	"github.com/wolfman30/aesthetics-booking/internal/notify"
	"github.com/wolfman30/aesthetics-booking/internal/observability/metrics"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// Notifier tells customers and staff about booking changes.
type Notifier interface {
	NotifyBooking(ctx context.Context, evt notify.BookingEvent) error
}

// CustomerRecorder keeps the customer directory in step with bookings.
type CustomerRecorder interface {
	UpsertByEmail(ctx context.Context, req customers.UpsertRequest) (*customers.Customer, error)
	RecordBooking(ctx context.Context, id, date string) error
}

// ServiceConfig wires the bookings service. Customers, Notifier, Metrics and
// Tracer are optional.
type ServiceConfig struct {
	Repo      Repository
	Schedules availability.ScheduleProvider
	Customers CustomerRecorder
	Notifier  Notifier
	Metrics   *metrics.BookingMetrics
	Tracer    trace.Tracer
	Logger    *logging.Logger
}

// Service applies booking writes with the slot conflict guard.
type Service struct {
	repo      Repository
	schedules availability.ScheduleProvider
	customers CustomerRecorder
	notifier  Notifier
	metrics   *metrics.BookingMetrics
	tracer    trace.Tracer
	logger    *logging.Logger
}

// NewService constructs a bookings service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Repo == nil || cfg.Schedules == nil {
		panic("bookings: repository and schedules required")
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("clinic.internal.bookings")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		repo:      cfg.Repo,
		schedules: cfg.Schedules,
		customers: cfg.Customers,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		logger:    cfg.Logger,
	}
}

// List returns bookings matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Booking, error) {
	return s.repo.List(ctx, f)
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// Create validates req, records the customer and stores the booking if its
// slot is still free.
func (s *Service) Create(ctx context.Context, req Request) (b *Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.create")
	defer span.End()
	defer s.observe("create", span, &b, &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clinic.team_member_id", req.TeamMemberID),
		attribute.String("clinic.date", req.Date),
		attribute.String("clinic.time", req.Time),
	)

	b = &Booking{}
	req.apply(b)
	guard, err := s.guardFor(ctx, b)
	if err != nil {
		return nil, err
	}

	if s.customers != nil {
		c, err := s.customers.UpsertByEmail(ctx, customers.UpsertRequest{
			Name:    b.CustomerName,
			Email:   b.CustomerEmail,
			Phone:   b.CustomerPhone,
			Address: b.Address,
		})
		if err != nil {
			s.logger.Warn("failed to upsert customer for booking", "email", b.CustomerEmail, "error", err)
		} else {
			b.CustomerID = c.ID
		}
	}

	if err := s.repo.Create(ctx, b, guard); err != nil {
		return nil, err
	}
	s.logger.Info("booking created",
		"booking_id", b.ID,
		"team_member_id", b.TeamMemberID,
		"date", b.Date,
		"time", b.Time,
		"duration_minutes", b.DurationMinutes,
	)

	if s.customers != nil && b.CustomerID != "" {
		if err := s.customers.RecordBooking(ctx, b.CustomerID, b.Date); err != nil {
			s.logger.Warn("failed to record customer booking", "customer_id", b.CustomerID, "error", err)
		}
	}
	s.notify(ctx, notify.KindBookingCreated, b, "")
	return b, nil
}

// Update replaces a booking. A booking that still occupies a slot must fit
// around the member's other bookings.
func (s *Service) Update(ctx context.Context, id string, req Request) (b *Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.update")
	defer span.End()
	defer s.observe("update", span, &b, &err)
	span.SetAttributes(attribute.String("clinic.booking_id", id))

	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b = &Booking{}
	*b = *existing
	req.apply(b)

	guard, err := s.guardFor(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b, guard); err != nil {
		return nil, err
	}
	s.logger.Info("booking updated", "booking_id", b.ID, "status", b.Status)
	s.notify(ctx, notify.KindBookingStatusChanged, b, existing.Status)
	return b, nil
}

// Patch changes status, payment status, notes or address. Reactivating a
// cancelled booking re-checks its slot.
func (s *Service) Patch(ctx context.Context, id string, req PatchRequest) (b *Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.patch")
	defer span.End()
	defer s.observe("patch", span, &b, &err)
	span.SetAttributes(attribute.String("clinic.booking_id", id))

	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b = &Booking{}
	*b = *existing
	req.apply(b)

	var guard Guard
	if !existing.Active() && b.Active() {
		if guard, err = s.guardFor(ctx, b); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, b, guard); err != nil {
		return nil, err
	}
	s.logger.Info("booking patched", "booking_id", b.ID, "status", b.Status, "payment_status", b.PaymentStatus)
	s.notify(ctx, notify.KindBookingStatusChanged, b, existing.Status)
	return b, nil
}

// Delete removes a booking.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.delete")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			s.metrics.ObserveMutation("delete", "failed")
			return
		}
		s.metrics.ObserveMutation("delete", "deleted")
	}()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("booking deleted", "booking_id", id)
	return nil
}

// guardFor resolves the member's working hours on the booking date and
// returns a guard rejecting any start the evaluator would not offer. Cancelled
// bookings need no guard.
func (s *Service) guardFor(ctx context.Context, b *Booking) (Guard, error) {
	if !b.Active() {
		return nil, nil
	}
	schedule, err := s.schedules.ScheduleFor(ctx, b.TeamMemberID)
	if err != nil {
		return nil, err
	}
	date, err := calendar.ParseDate(b.Date, schedule.Location())
	if err != nil {
		return nil, &ValidationError{err: fmt.Errorf("date: %w", err)}
	}
	hours := schedule.HoursOn(date)
	if hours == nil {
		return nil, fmt.Errorf("%w: %s is closed on %s", ErrSlotUnavailable, b.TeamMemberID, b.Date)
	}
	start, duration, wh := b.Time, b.DurationMinutes, *hours
	return func(existing []availability.Appointment) error {
		if !availability.IsSlotAvailable(start, availability.BookedSlots(existing), wh, duration) {
			return fmt.Errorf("%w: %s %s at %s", ErrSlotUnavailable, b.TeamMemberID, b.Date, start)
		}
		return nil
	}, nil
}

func (s *Service) notify(ctx context.Context, kind string, b *Booking, previous Status) {
	if s.notifier == nil {
		return
	}
	if kind == notify.KindBookingStatusChanged && b.Status == previous {
		return
	}
	err := s.notifier.NotifyBooking(ctx, notify.BookingEvent{
		Kind:           kind,
		BookingID:      b.ID,
		CustomerName:   b.CustomerName,
		CustomerEmail:  b.CustomerEmail,
		Service:        b.Service,
		TeamMemberID:   b.TeamMemberID,
		Date:           b.Date,
		Time:           b.Time,
		Status:         string(b.Status),
		PreviousStatus: string(previous),
		PaymentStatus:  string(b.PaymentStatus),
		Amount:         b.Amount,
	})
	s.metrics.ObserveNotification(kind, err)
	if err != nil {
		s.logger.Error("failed to send booking notification", "booking_id", b.ID, "kind", kind, "error", err)
	}
}

func (s *Service) observe(op string, span trace.Span, b **Booking, err *error) {
	if *err != nil {
		span.RecordError(*err)
		if errors.Is(*err, ErrSlotUnavailable) {
			s.metrics.ObserveConflict()
			s.metrics.ObserveMutation(op, "conflict")
			return
		}
		s.metrics.ObserveMutation(op, "failed")
		return
	}
	if *b != nil {
		s.metrics.ObserveMutation(op, string((*b).Status))
	}
}

// MonthView is the admin calendar for one month.
type MonthView struct {
	Month        string          `json:"month"` // YYYY-MM
	TeamMemberID string          `json:"team_member_id,omitempty"`
	Cells        []*CalendarCell `json:"cells"`
}

// CalendarCell is one date of the admin calendar. Status is only set when the
// view is scoped to a team member.
type CalendarCell struct {
	Date     string              `json:"date"`
	Bookings []Booking           `json:"bookings"`
	Status   availability.Status `json:"status,omitempty"`
}

// MonthLayout is the format of the month query parameter.
const MonthLayout = "2006-01"

// Calendar lays out a month of bookings on a Monday-first grid. With a team
// member the cells also carry the member's day status for a one-hour visit.
func (s *Service) Calendar(ctx context.Context, month, teamMemberID string) (*MonthView, error) {
	ctx, span := s.tracer.Start(ctx, "bookings.calendar")
	defer span.End()

	loc := time.UTC
	var schedule availability.Schedule
	if teamMemberID != "" {
		sch, err := s.schedules.ScheduleFor(ctx, teamMemberID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		schedule = sch
		if l := sch.Location(); l != nil {
			loc = l
		}
	}

	first, err := time.ParseInLocation(MonthLayout, month, loc)
	if err != nil {
		return nil, &ValidationError{err: fmt.Errorf("month must be YYYY-MM: %w", err)}
	}
	dates := calendar.MonthDates(first.Year(), first.Month(), loc)
	startDate := dates[0].Format(calendar.DateLayout)
	endDate := dates[len(dates)-1].Format(calendar.DateLayout)

	list, err := s.repo.List(ctx, Filter{StartDate: startDate, EndDate: endDate, TeamMemberID: teamMemberID})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	byDate := make(map[string][]Booking)
	for _, b := range list {
		byDate[b.Date] = append(byDate[b.Date], b)
	}

	cells := make([]CalendarCell, 0, len(dates))
	for _, d := range dates {
		key := d.Format(calendar.DateLayout)
		cell := CalendarCell{Date: key, Bookings: byDate[key]}
		if cell.Bookings == nil {
			cell.Bookings = []Booking{}
		}
		if schedule != nil {
			var appts []availability.Appointment
			for _, b := range cell.Bookings {
				if b.Active() {
					appts = append(appts, b.Appointment())
				}
			}
			cell.Status = availability.BuildDay(availability.DayInput{
				Date:            key,
				Hours:           schedule.HoursOn(d),
				Booked:          availability.BookedSlots(appts),
				DurationMinutes: 60,
			}).Status
		}
		cells = append(cells, cell)
	}

	return &MonthView{
		Month:        first.Format(MonthLayout),
		TeamMemberID: teamMemberID,
		Cells:        calendar.Layout(first, cells),
	}, nil
}

// Appointments implements availability.AppointmentSource.
func (s *Service) Appointments(ctx context.Context, teamMemberID, startDate, endDate string) ([]availability.Appointment, error) {
	return s.repo.Appointments(ctx, teamMemberID, startDate, endDate)
}
