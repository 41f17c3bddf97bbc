package customers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSearchLimit caps search results when no limit is given.
const DefaultSearchLimit = 50

// Repository defines the interface for customer storage
type Repository interface {
	Search(ctx context.Context, query string, limit int) ([]Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	UpsertByEmail(ctx context.Context, req UpsertRequest) (*Customer, error)
	RecordBooking(ctx context.Context, id, date string) error
}

// InMemoryRepository keeps customers in memory; used when no database is configured.
type InMemoryRepository struct {
	mu        sync.RWMutex
	customers map[string]*Customer
	byEmail   map[string]string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		customers: make(map[string]*Customer),
		byEmail:   make(map[string]string),
	}
}

// Search returns customers whose name, email or phone contains query.
func (r *InMemoryRepository) Search(ctx context.Context, query string, limit int) ([]Customer, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	r.mu.RLock()
	out := make([]Customer, 0, len(r.customers))
	for _, c := range r.customers {
		if matches(c, query) {
			out = append(out, *c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get retrieves a customer by ID
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

// UpsertByEmail creates the customer or updates name, phone and address.
func (r *InMemoryRepository) UpsertByEmail(ctx context.Context, req UpsertRequest) (*Customer, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byEmail[req.Email]; ok {
		c := r.customers[id]
		c.Name = req.Name
		if req.Phone != "" {
			c.Phone = req.Phone
		}
		if req.Address != "" {
			c.Address = req.Address
		}
		cp := *c
		return &cp, nil
	}

	c := &Customer{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}
	r.customers[c.ID] = c
	r.byEmail[c.Email] = c.ID
	cp := *c
	return &cp, nil
}

// RecordBooking bumps the booking count and latest booking date.
func (r *InMemoryRepository) RecordBooking(ctx context.Context, id, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return ErrCustomerNotFound
	}
	c.BookingCount++
	if date > c.LastBookingDate {
		c.LastBookingDate = date
	}
	return nil
}
