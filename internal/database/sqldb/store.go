package sqldb

import (
	"context"
	"fmt"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/database"
)

func init() {
	for _, scheme := range []string{"postgres", "mysql", "sqlite"} {
		database.RegisterBackend(scheme, Open)
	}
}

// Store implements database.Store on a SQL pool.
type Store struct {
	pool *Pool
}

// NewStore wraps an already-migrated pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Open connects, runs pending migrations, and returns a ready store.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (database.Store, error) {
	pool, err := NewPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewStore(pool), nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.pool.dialect, err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

var _ database.Store = (*Store)(nil)
