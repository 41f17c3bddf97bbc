package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/aesthetics-booking/internal/bookings"
	"github.com/wolfman30/aesthetics-booking/internal/clinic"
	appconfig "github.com/wolfman30/aesthetics-booking/internal/config"
	"github.com/wolfman30/aesthetics-booking/internal/customers"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 3 * time.Second,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, falling back to in-memory clinic config", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL. It returns nil without error
// when no database is configured.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildClinicStore returns the Redis clinic config store, or an in-memory
// store seeded with the default config when Redis is unavailable.
func BuildClinicStore(redisClient *redis.Client) clinic.ConfigStore {
	if redisClient == nil {
		return clinic.NewMemoryStore()
	}
	return clinic.NewStore(redisClient)
}

// Repositories groups the storage backends chosen at startup.
type Repositories struct {
	Bookings  bookings.Repository
	Customers customers.Repository
	Backend   string
}

// BuildRepositories uses Postgres when a pool is available and memory otherwise.
func BuildRepositories(pool *pgxpool.Pool) Repositories {
	if pool == nil {
		return Repositories{
			Bookings:  bookings.NewInMemoryRepository(),
			Customers: customers.NewInMemoryRepository(),
			Backend:   "memory",
		}
	}
	return Repositories{
		Bookings:  bookings.NewPostgresRepository(pool),
		Customers: customers.NewPostgresRepository(pool),
		Backend:   "postgres",
	}
}
