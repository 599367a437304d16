package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/google/uuid"
)

// SessionStateRepository persists dashboard state documents as JSONB.
type SessionStateRepository struct {
	db *DB
}

// NewSessionStateRepository creates a new session state repository.
func NewSessionStateRepository(db *DB) *SessionStateRepository {
	return &SessionStateRepository{db: db}
}

// Load returns the stored document for a session, or session.ErrNotFound.
func (r *SessionStateRepository) Load(ctx context.Context, id uuid.UUID) (*models.StateDocument, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT document FROM session_states WHERE session_id = $1
	`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	doc := &models.StateDocument{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return doc, nil
}

// Save upserts the document for a session.
func (r *SessionStateRepository) Save(ctx context.Context, id uuid.UUID, doc models.StateDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO session_states (session_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, id, raw, now, now)
	if err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

// Delete removes a session's document.
func (r *SessionStateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM session_states WHERE session_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// List returns every stored session, most recently updated first.
func (r *SessionStateRepository) List(ctx context.Context) ([]session.Info, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, created_at, updated_at
		FROM session_states
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list session states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []session.Info
	for rows.Next() {
		var info session.Info
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session state: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session states: %w", err)
	}
	return out, nil
}
