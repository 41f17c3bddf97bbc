package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

// ConfigStore persists clinic configurations.
type ConfigStore interface {
	Get(ctx context.Context, clinicID string) (*Config, error)
	Set(ctx context.Context, cfg *Config) error
}

// Store keeps clinic configurations in Redis as JSON.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new clinic config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:config:%s", clinicID)
}

// Get retrieves clinic config, returning default if not found.
func (s *Store) Get(ctx context.Context, clinicID string) (*Config, error) {
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultConfig(clinicID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Set saves clinic config.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("clinic: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cfg.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set config: %w", err)
	}
	return nil
}

// MemoryStore is an in-process ConfigStore used when Redis is not configured.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string][]byte)}
}

// Get returns a copy of the stored config, or the default.
func (m *MemoryStore) Get(_ context.Context, clinicID string) (*Config, error) {
	m.mu.RLock()
	data, ok := m.configs[clinicID]
	m.mu.RUnlock()
	if !ok {
		return DefaultConfig(clinicID), nil
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Set stores a copy of cfg.
func (m *MemoryStore) Set(_ context.Context, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("clinic: marshal config: %w", err)
	}
	m.mu.Lock()
	m.configs[cfg.ClinicID] = data
	m.mu.Unlock()
	return nil
}

// Schedules adapts a ConfigStore to availability.ScheduleProvider for one clinic.
type Schedules struct {
	store    ConfigStore
	clinicID string
}

// NewSchedules creates a schedule provider reading the clinic's config.
func NewSchedules(store ConfigStore, clinicID string) *Schedules {
	return &Schedules{store: store, clinicID: clinicID}
}

// ScheduleFor implements availability.ScheduleProvider.
func (s *Schedules) ScheduleFor(ctx context.Context, teamMemberID string) (availability.Schedule, error) {
	cfg, err := s.store.Get(ctx, s.clinicID)
	if err != nil {
		return nil, err
	}
	return cfg.ScheduleFor(teamMemberID)
}
