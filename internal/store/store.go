// Package store opens the configured persistence backend for dashboard state.
package store

import (
	"context"
	"fmt"

	"github.com/benvon/smart-dashboard/internal/config"
	"github.com/benvon/smart-dashboard/internal/database"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/benvon/smart-dashboard/internal/store/sqlite"
)

// Backend bundles the stores served by one database. State and Ratelimit are nil for the
// memory backend.
type Backend struct {
	Kind      string
	State     session.StateStore
	Ratelimit database.RatelimitConfigStore

	ping  func(ctx context.Context) error
	close func() error
}

// Open connects to the backend named by cfg.StateStore, running migrations where needed.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StateStore {
	case config.StorePostgres:
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &Backend{
			Kind:      config.StorePostgres,
			State:     database.NewSessionStateRepository(db),
			Ratelimit: database.NewRatelimitConfigRepository(db),
			ping:      db.PingContext,
			close:     db.Close,
		}, nil

	case config.StoreSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &Backend{
			Kind:      config.StoreSQLite,
			State:     st,
			Ratelimit: st,
			ping:      st.Ping,
			close:     st.Close,
		}, nil

	case config.StoreMemory, "":
		return &Backend{Kind: config.StoreMemory}, nil

	default:
		return nil, fmt.Errorf("unknown state store %q", cfg.StateStore)
	}
}

// Persistent reports whether state survives a restart.
func (b *Backend) Persistent() bool {
	return b.State != nil
}

// Ping checks the database connection. The memory backend is always reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the database connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
