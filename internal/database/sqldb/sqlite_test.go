package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/database/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Pool {
	t.Helper()
	cfg := &config.DatabaseConfig{URL: "sqlite://" + filepath.Join(t.TempDir(), "crimai.db")}
	pool, err := NewPool(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, pool.Migrate(context.Background()))
	return pool
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, NewStore(openSQLite(t)))
}

func TestSQLiteMigrations_Idempotent(t *testing.T) {
	pool := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, pool.Migrate(ctx))

	versions, err := pool.MigrationsApplied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_initial.sql"}, versions)
}

func TestOpen_ViaRegistry(t *testing.T) {
	cfg := &config.DatabaseConfig{URL: "sqlite://" + filepath.Join(t.TempDir(), "registry.db")}
	store, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.CountDetections(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadMigrations_AllDialects(t *testing.T) {
	for _, d := range []Dialect{Postgres, MySQL, SQLite} {
		t.Run(string(d), func(t *testing.T) {
			ms, err := loadMigrations(d)
			require.NoError(t, err)
			require.NotEmpty(t, ms)
			assert.Equal(t, "001_initial.sql", ms[0].version)
			assert.Contains(t, ms[0].script, "CREATE TABLE")
		})
	}
}
