package session

import (
	"context"
	"errors"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned by a StateStore when no document exists for a session.
var ErrNotFound = errors.New("session state not found")

// StateStore persists dashboard state documents keyed by session id.
type StateStore interface {
	Load(ctx context.Context, id uuid.UUID) (*models.StateDocument, error)
	Save(ctx context.Context, id uuid.UUID, doc models.StateDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Info, error)
}

// Info describes a persisted session without its document.
type Info struct {
	ID        uuid.UUID `json:"id" db:"session_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
