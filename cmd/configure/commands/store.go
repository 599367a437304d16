// Package commands implements the dashboardctl subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-dashboard/internal/config"
	"github.com/benvon/smart-dashboard/internal/store"
)

var errMemoryStore = errors.New("STATE_STORE=memory keeps nothing on disk; set STATE_STORE to postgres or sqlite")

// openPersistentStore loads the environment configuration and opens its database.
func openPersistentStore(ctx context.Context) (*store.Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !backend.Persistent() {
		return nil, errMemoryStore
	}
	return backend, nil
}
