// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/database"
)

var counter atomic.Int64

// NewClient returns a fresh migrated database, closed when the test ends.
func NewClient(t testing.TB) *database.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:levrix_test_%d?mode=memory&cache=shared&_loc=UTC", counter.Add(1))
	client, err := database.Open(database.DriverSQLite, dsn, database.DefaultPoolConfig())
	require.NoError(t, err)
	require.NoError(t, client.Migrate(context.Background()))

	t.Cleanup(func() { client.Close() })
	return client
}

// SeedUser inserts a bare user row so foreign keys resolve.
func SeedUser(t testing.TB, client *database.Client, id, email string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := client.DB.Exec(
		`INSERT INTO users (id, email, password_hash, full_name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, email, "x", "", now, now,
	)
	require.NoError(t, err)
}
