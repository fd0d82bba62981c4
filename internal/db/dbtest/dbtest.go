// Package dbtest opens the Postgres database used by repository tests.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nekogravitycat/tour-booking-backend/internal/db"
	"github.com/stretchr/testify/require"
)

const advisoryLockKey int64 = 7420013

// Open connects to TEST_DB_DSN, applies the schema and empties all tables.
// Callers are serialized across packages until the test ends.
// The test is skipped when TEST_DB_DSN is not set.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	loadDotEnv()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	// Packages run in parallel but share one database; hold a session lock
	// for the whole test.
	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockKey)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockKey)
		conn.Release()
	})

	require.NoError(t, db.Migrate(ctx, pool))
	Truncate(t, pool)
	return pool
}

// Truncate removes all rows, children first.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE public.payments, public.bookings, public.listings, public.users CASCADE")
	require.NoError(t, err)
}

// loadDotEnv looks for a .env file in the working directory and its parents,
// since package tests run from their own directory.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
