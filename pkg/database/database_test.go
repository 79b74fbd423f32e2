package database_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/database"
	"github.com/levrixhq/levrix/pkg/database/dbtest"
)

func TestBuildConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		sslCfg   *database.SSLConfig
		contains []string
	}{
		{
			name:     "no SSL config keeps URL",
			baseURL:  "postgres://u:p@localhost:5432/db?sslmode=disable",
			contains: []string{"sslmode=disable"},
		},
		{
			name:     "mode overrides URL",
			baseURL:  "postgres://u:p@localhost:5432/db?sslmode=disable",
			sslCfg:   &database.SSLConfig{Mode: "require"},
			contains: []string{"sslmode=require"},
		},
		{
			name:    "certificates",
			baseURL: "postgres://u:p@localhost:5432/db",
			sslCfg: &database.SSLConfig{
				Mode:         "verify-full",
				CertPath:     "/etc/ssl/c.pem",
				RootCertPath: "/etc/ssl/ca.pem",
			},
			contains: []string{"sslmode=verify-full", "sslcert=%2Fetc%2Fssl%2Fc.pem", "sslrootcert=%2Fetc%2Fssl%2Fca.pem"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := database.BuildConnectionString(tt.baseURL, tt.sslCfg)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open("oracle", "x", database.DefaultPoolConfig())
	assert.Error(t, err)
}

func TestMigrate_CreatesSchema(t *testing.T) {
	client := dbtest.NewClient(t)
	ctx := context.Background()

	version, err := client.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"users", "profiles", "leads", "message_logs", "team_members"} {
		var n int
		err := client.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
		require.NoError(t, err, table)
		assert.Zero(t, n)
	}

	require.NoError(t, client.Ping(ctx))
}

func TestWithTx_RollsBack(t *testing.T) {
	client := dbtest.NewClient(t)
	ctx := context.Background()

	dbtest.SeedUser(t, client, "u1", "owner@levrix.io")

	err := client.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET full_name = $1 WHERE id = $2", "Changed", "u1"); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var name string
	require.NoError(t, client.DB.QueryRowContext(ctx, "SELECT full_name FROM users WHERE id = $1", "u1").Scan(&name))
	assert.Equal(t, "", name)
}
