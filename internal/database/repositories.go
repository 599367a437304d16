package database

import (
	"context"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/session"
)

// RatelimitConfigStore reads and writes the hot-reloadable rate limit.
// Both the Postgres and SQLite backends implement it.
type RatelimitConfigStore interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ session.StateStore   = (*SessionStateRepository)(nil)
	_ RatelimitConfigStore = (*RatelimitConfigRepository)(nil)
)
