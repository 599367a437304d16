package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/benvon/smart-dashboard/internal/config"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		cfg            config.Config
		wantPersistent bool
		wantErr        bool
	}{
		{name: "memory", cfg: config.Config{StateStore: config.StoreMemory}},
		{name: "sqlite", cfg: config.Config{StateStore: config.StoreSQLite}, wantPersistent: true},
		{name: "unknown backend", cfg: config.Config{StateStore: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg
			cfg.SQLitePath = filepath.Join(t.TempDir(), "state.db")

			b, err := Open(context.Background(), &cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, b.Close()) })

			assert.Equal(t, tt.wantPersistent, b.Persistent())
			assert.Equal(t, tt.wantPersistent, b.Ratelimit != nil)
			assert.NoError(t, b.Ping(context.Background()))
		})
	}
}

func TestOpen_SQLiteRatelimitRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := config.Config{StateStore: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "state.db")}
	b, err := Open(context.Background(), &cfg)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	ctx := context.Background()
	require.NoError(t, b.Ratelimit.Set(ctx, &models.RatelimitConfig{Rate: "50-M"}))
	got, err := b.Ratelimit.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "50-M", got.Rate)
}
