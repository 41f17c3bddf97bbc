package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/calendar"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

const (
	DefaultDebounce   = 300 * time.Millisecond
	DefaultWindowDays = 30
	fetchTimeout      = 20 * time.Second
)

// Submitter creates the booking for a completed order and returns its id.
type Submitter interface {
	Submit(ctx context.Context, order Order) (string, error)
}

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Fetcher    availability.Fetcher
	Submitter  Submitter
	Logger     *logging.Logger
	Debounce   time.Duration
	WindowDays int
	Location   *time.Location
	Now        func() time.Time
	// OnChange is called with every new state, outside the controller lock.
	OnChange func(State)
}

// Controller owns a wizard State and runs its effects: refetches are
// debounced, superseded requests are cancelled and late results are dropped
// by token.
type Controller struct {
	mu    sync.Mutex
	state State

	fetcher    availability.Fetcher
	submitter  Submitter
	logger     *logging.Logger
	debounce   time.Duration
	windowDays int
	loc        *time.Location
	now        func() time.Time
	onChange   func(State)

	ctx         context.Context
	stop        context.CancelFunc
	timer       *time.Timer
	cancelFetch context.CancelFunc
}

// NewController creates a controller starting on the services step.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Fetcher == nil {
		panic("wizard: fetcher required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		fetcher:    cfg.Fetcher,
		submitter:  cfg.Submitter,
		logger:     cfg.Logger,
		debounce:   cfg.Debounce,
		windowDays: cfg.WindowDays,
		loc:        cfg.Location,
		now:        cfg.Now,
		onChange:   cfg.OnChange,
		ctx:        ctx,
		stop:       stop,
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies an action and schedules any resulting effects.
func (c *Controller) Dispatch(a Action) (State, error) {
	c.mu.Lock()
	next, effects, err := Reduce(c.state, a)
	if err != nil {
		s := c.state
		c.mu.Unlock()
		return s, err
	}
	c.state = next
	for _, e := range effects {
		c.schedule(e)
	}
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(next)
	}
	return next, nil
}

// Submit sends the order on the payment step. On success the wizard resets.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	s := c.state
	c.mu.Unlock()

	if s.Step != StepPayment || !s.CanEnter(StepPayment) {
		return "", fmt.Errorf("%w: %s", ErrStepLocked, StepPayment)
	}
	if s.Contact.Name == "" || s.Contact.Email == "" {
		return "", ErrMissingContact
	}
	if c.submitter == nil {
		return "", errors.New("wizard: no submitter configured")
	}

	id, err := c.submitter.Submit(ctx, s.Order())
	if err != nil {
		return "", fmt.Errorf("wizard: submit booking: %w", err)
	}
	c.logger.Info("booking submitted", "booking_id", id, "team_member_id", s.TeamMemberID, "date", s.SelectedDate, "time", s.SelectedTime)

	c.mu.Lock()
	c.resetFetchLocked()
	c.state = State{Token: c.state.Token + 1}
	reset := c.state
	c.mu.Unlock()
	if c.onChange != nil {
		c.onChange(reset)
	}
	return id, nil
}

// Close stops pending and in-flight availability requests.
func (c *Controller) Close() {
	c.mu.Lock()
	c.resetFetchLocked()
	c.mu.Unlock()
	c.stop()
}

func (c *Controller) schedule(e Effect) {
	switch e := e.(type) {
	case Refetch:
		c.resetFetchLocked()
		c.timer = time.AfterFunc(c.debounce, func() { c.fetch(e) })
	default:
		c.logger.Warn("unhandled wizard effect", "effect", fmt.Sprintf("%T", e))
	}
}

func (c *Controller) resetFetchLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

func (c *Controller) fetch(r Refetch) {
	c.mu.Lock()
	if c.state.Token != r.Token {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, fetchTimeout)
	c.cancelFetch = cancel
	c.mu.Unlock()
	defer cancel()

	dates := calendar.Window(c.now().In(c.loc), c.windowDays)
	q := availability.RangeQuery{
		TeamMemberID:    r.TeamMemberID,
		StartDate:       dates[0].Format(calendar.DateLayout),
		EndDate:         dates[len(dates)-1].Format(calendar.DateLayout),
		DurationMinutes: r.DurationMinutes,
	}
	days, err := c.fetcher.FetchRange(ctx, q)

	var result Action = AvailabilityLoaded{Token: r.Token, Days: days}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Warn("availability fetch failed", "team_member_id", r.TeamMemberID, "duration_minutes", r.DurationMinutes, "error", err)
		result = AvailabilityFailed{Token: r.Token, Err: err}
	}
	if _, err := c.Dispatch(result); err != nil {
		c.logger.Error("apply availability result", "error", err)
	}
}
