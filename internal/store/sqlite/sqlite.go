// Package sqlite is a single-file state store for deployments without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-dashboard/internal/database"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store implements session.StateStore and the rate limit config store on SQLite.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var (
	_ session.StateStore            = (*Store)(nil)
	_ database.RatelimitConfigStore = (*Store)(nil)
)

// Open opens (or creates) a SQLite database at path, enables WAL mode and foreign keys,
// and runs any pending schema migrations. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// Load returns the stored document for a session, or session.ErrNotFound.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*models.StateDocument, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, "SELECT document FROM session_states WHERE session_id = ?", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	doc := &models.StateDocument{}
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return doc, nil
}

// Save upserts the document for a session.
func (s *Store) Save(ctx context.Context, id uuid.UUID, doc models.StateDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_states (session_id, document, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		id.String(), string(raw), now, now)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	return nil
}

// Delete removes a session's document.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM session_states WHERE session_id = ?", id.String())
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrNotFound
	}
	return nil
}

type sessionRow struct {
	ID        string    `db:"session_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// List returns every stored session, most recently updated first.
func (s *Store) List(ctx context.Context) ([]session.Info, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT session_id, created_at, updated_at FROM session_states ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	out := make([]session.Info, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing session id %q: %w", r.ID, err)
		}
		out = append(out, session.Info{ID: id, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

// Get retrieves the default rate limit config. It returns nil, nil when no row exists.
func (s *Store) Get(ctx context.Context) (*models.RatelimitConfig, error) {
	c := &models.RatelimitConfig{}
	err := s.db.GetContext(ctx, c,
		"SELECT config_key, rate, created_at, updated_at FROM ratelimit_config WHERE config_key = ?",
		database.DefaultRatelimitConfigKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ratelimit config: %w", err)
	}
	return c, nil
}

// Set upserts the default rate limit config.
func (s *Store) Set(ctx context.Context, c *models.RatelimitConfig) error {
	rate, err := database.NormalizeRate(c.Rate)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(config_key) DO UPDATE SET
			rate = excluded.rate,
			updated_at = excluded.updated_at`,
		database.DefaultRatelimitConfigKey, rate, now, now)
	if err != nil {
		return fmt.Errorf("set ratelimit config: %w", err)
	}
	return nil
}
