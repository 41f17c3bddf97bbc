package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

// Guard inspects the active appointments already held by the booking's team
// member on the booking's date, the booking itself excluded, and returns an
// error to abort the write. Repositories run it while holding the
// member/date lock.
type Guard func(existing []availability.Appointment) error

// Repository defines the interface for booking storage.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	// Create assigns the id and timestamps of b.
	Create(ctx context.Context, b *Booking, guard Guard) error
	// Update replaces the stored booking with b.
	Update(ctx context.Context, b *Booking, guard Guard) error
	Delete(ctx context.Context, id string) error
	Appointments(ctx context.Context, teamMemberID, startDate, endDate string) ([]availability.Appointment, error)
}

// InMemoryRepository keeps bookings in memory; used when no database is configured.
type InMemoryRepository struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	now      func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		bookings: make(map[string]*Booking),
		now:      time.Now,
	}
}

// List returns bookings matching f ordered by date and time.
func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Booking, error) {
	r.mu.Lock()
	out := make([]Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		if f.matches(b) {
			out = append(out, *b)
		}
	}
	r.mu.Unlock()
	sortBookings(out)
	return out, nil
}

// Get returns a copy of the booking.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

// Create stores a new booking.
func (r *InMemoryRepository) Create(_ context.Context, b *Booking, guard Guard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkLocked(b, "", guard); err != nil {
		return err
	}
	now := r.now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

// Update replaces an existing booking.
func (r *InMemoryRepository) Update(_ context.Context, b *Booking, guard Guard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.bookings[b.ID]
	if !ok {
		return ErrBookingNotFound
	}
	if err := r.checkLocked(b, b.ID, guard); err != nil {
		return err
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = r.now().UTC()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

// Delete removes a booking.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return ErrBookingNotFound
	}
	delete(r.bookings, id)
	return nil
}

// Appointments implements availability.AppointmentSource.
func (r *InMemoryRepository) Appointments(_ context.Context, teamMemberID, startDate, endDate string) ([]availability.Appointment, error) {
	r.mu.Lock()
	list := make([]Booking, 0)
	for _, b := range r.bookings {
		if b.TeamMemberID == teamMemberID && b.Active() && b.Date >= startDate && b.Date <= endDate {
			list = append(list, *b)
		}
	}
	r.mu.Unlock()
	sortBookings(list)
	out := make([]availability.Appointment, 0, len(list))
	for _, b := range list {
		out = append(out, b.Appointment())
	}
	return out, nil
}

func (r *InMemoryRepository) checkLocked(b *Booking, excludeID string, guard Guard) error {
	if guard == nil {
		return nil
	}
	var existing []availability.Appointment
	for _, other := range r.bookings {
		if other.ID == excludeID || !other.Active() {
			continue
		}
		if other.TeamMemberID == b.TeamMemberID && other.Date == b.Date {
			existing = append(existing, other.Appointment())
		}
	}
	return guard(existing)
}

func sortBookings(list []Booking) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].ID < list[j].ID
	})
}

var (
	_ Repository                     = (*InMemoryRepository)(nil)
	_ availability.AppointmentSource = (*InMemoryRepository)(nil)
)
