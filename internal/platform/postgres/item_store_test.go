//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/gallery-api/internal/platform/postgres"
	"github.com/phrazzld/gallery-api/internal/store"
	"github.com/phrazzld/gallery-api/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to DATABASE_URL and applies the embedded migrations.
// The test is skipped when no database is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping PostgreSQL integration tests")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "database must be reachable")
	require.NoError(t, postgres.Migrate(ctx, db, "up", nil))

	return db
}

func TestPostgresItemStore_Conformance(t *testing.T) {
	db := openTestDB(t)

	storetest.Run(t, func(t *testing.T, clock func() time.Time) store.ItemStore {
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = tx.Rollback() })

		// Each subtest starts from an empty table inside its own transaction.
		_, err = tx.ExecContext(context.Background(), `DELETE FROM gallery_items`)
		require.NoError(t, err)

		return postgres.NewPostgresItemStore(tx, nil, postgres.WithClock(clock))
	})
}

func TestMigrate_Status(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, postgres.Migrate(context.Background(), db, "status", nil))
}
