package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/calendar"
)

type recordingFetcher struct {
	mu      sync.Mutex
	queries []availability.RangeQuery
	// block holds requests for these members until their context ends.
	block   map[string]bool
	started chan string
	aborted chan string
}

func newRecordingFetcher() *recordingFetcher {
	return &recordingFetcher{
		block:   map[string]bool{},
		started: make(chan string, 8),
		aborted: make(chan string, 8),
	}
}

func (f *recordingFetcher) FetchRange(ctx context.Context, q availability.RangeQuery) ([]availability.Day, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	blocked := f.block[q.TeamMemberID]
	f.mu.Unlock()
	f.started <- q.TeamMemberID

	if blocked {
		<-ctx.Done()
		f.aborted <- q.TeamMemberID
		return nil, ctx.Err()
	}

	start, _ := calendar.ParseDate(q.StartDate, nil)
	end, _ := calendar.ParseDate(q.EndDate, nil)
	var days []availability.Day
	for _, d := range calendar.Between(start, end) {
		var hours *availability.WorkingHours
		if d.Weekday() != time.Sunday {
			hours = &availability.WorkingHours{Start: "09:00", End: "17:00"}
		}
		days = append(days, availability.BuildDay(availability.DayInput{
			Date:            d.Format(calendar.DateLayout),
			Hours:           hours,
			DurationMinutes: q.DurationMinutes,
		}))
	}
	return days, nil
}

func (f *recordingFetcher) members() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	for i, q := range f.queries {
		out[i] = q.TeamMemberID
	}
	return out
}

type stubSubmitter struct {
	got Order
	err error
}

func (s *stubSubmitter) Submit(_ context.Context, o Order) (string, error) {
	s.got = o
	return "bk-1", s.err
}

func newTestController(f *recordingFetcher, sub Submitter) *Controller {
	return NewController(ControllerConfig{
		Fetcher:    f,
		Submitter:  sub,
		Debounce:   20 * time.Millisecond,
		WindowDays: 7,
		Location:   time.UTC,
		Now:        func() time.Time { return time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC) },
	})
}

func waitLoaded(t *testing.T, c *Controller) State {
	t.Helper()
	require.Eventually(t, func() bool {
		s := c.State()
		return !s.Loading && len(s.Days) > 0
	}, 2*time.Second, 5*time.Millisecond)
	return c.State()
}

func TestControllerDebouncesRefetch(t *testing.T) {
	f := newRecordingFetcher()
	c := newTestController(f, nil)
	defer c.Close()

	_, err := c.Dispatch(AddService{Item: OrderItem{ServiceID: "botox", Price: 300, Duration: 60}})
	require.NoError(t, err)
	_, err = c.Dispatch(SelectTeamMember{TeamMemberID: "tm-a"})
	require.NoError(t, err)
	_, err = c.Dispatch(SelectTeamMember{TeamMemberID: "tm-b"})
	require.NoError(t, err)

	s := waitLoaded(t, c)
	assert.Equal(t, []string{"tm-b"}, f.members())
	require.Len(t, s.Days, 7)
	assert.Equal(t, "2026-10-12", s.Days[0].Date)
	assert.Equal(t, "2026-10-18", s.Days[6].Date)

	f.mu.Lock()
	q := f.queries[0]
	f.mu.Unlock()
	assert.Equal(t, 60, q.DurationMinutes)
	assert.Equal(t, "2026-10-12", q.StartDate)
	assert.Equal(t, "2026-10-18", q.EndDate)
}

func TestControllerCancelsSupersededFetch(t *testing.T) {
	f := newRecordingFetcher()
	f.block["tm-a"] = true
	c := newTestController(f, nil)
	defer c.Close()

	_, err := c.Dispatch(AddService{Item: OrderItem{ServiceID: "botox", Price: 300, Duration: 60}})
	require.NoError(t, err)
	_, err = c.Dispatch(SelectTeamMember{TeamMemberID: "tm-a"})
	require.NoError(t, err)

	select {
	case m := <-f.started:
		require.Equal(t, "tm-a", m)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch for tm-a never started")
	}

	_, err = c.Dispatch(SelectTeamMember{TeamMemberID: "tm-b"})
	require.NoError(t, err)

	select {
	case m := <-f.aborted:
		assert.Equal(t, "tm-a", m)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}

	s := waitLoaded(t, c)
	assert.Equal(t, "tm-b", s.TeamMemberID)
	assert.Nil(t, s.AvailabilityErr)
}

func TestControllerSubmit(t *testing.T) {
	f := newRecordingFetcher()
	sub := &stubSubmitter{}
	c := newTestController(f, sub)
	defer c.Close()

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrStepLocked)

	_, err = c.Dispatch(AddService{Item: OrderItem{ServiceID: "botox", Name: "Botox", Price: 300, Duration: 60}})
	require.NoError(t, err)
	_, err = c.Dispatch(SelectTeamMember{TeamMemberID: "tm-a"})
	require.NoError(t, err)
	waitLoaded(t, c)

	for _, a := range []Action{
		SelectDate{Date: "2026-10-13"},
		SelectTime{Time: "10:00"},
		Next{},
		Next{},
	} {
		_, err := c.Dispatch(a)
		require.NoError(t, err, "%T", a)
	}

	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, ErrMissingContact)

	_, err = c.Dispatch(SetContact{Contact: Contact{Name: " Ana ", Email: "ana@example.com"}})
	require.NoError(t, err)

	id, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bk-1", id)
	assert.Equal(t, "Ana", sub.got.Contact.Name)
	assert.Equal(t, "2026-10-13", sub.got.Date)
	assert.Equal(t, "10:00", sub.got.Time)
	require.Len(t, sub.got.Items, 1)

	s := c.State()
	assert.Equal(t, StepServices, s.Step)
	assert.True(t, s.Cart.Empty())
}

func TestControllerSubmitFailureKeepsState(t *testing.T) {
	f := newRecordingFetcher()
	sub := &stubSubmitter{err: errors.New("slot taken")}
	c := newTestController(f, sub)
	defer c.Close()

	_, _ = c.Dispatch(AddService{Item: OrderItem{ServiceID: "botox", Price: 300, Duration: 60}})
	_, _ = c.Dispatch(SelectTeamMember{TeamMemberID: "tm-a"})
	waitLoaded(t, c)
	_, _ = c.Dispatch(SelectDate{Date: "2026-10-13"})
	_, _ = c.Dispatch(SelectTime{Time: "10:00"})
	_, _ = c.Dispatch(ToggleStep{Step: StepPayment})
	_, _ = c.Dispatch(SetContact{Contact: Contact{Name: "Ana", Email: "ana@example.com"}})

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepPayment, c.State().Step)
}
