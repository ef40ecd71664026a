//go:build integration

package postgres_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/infrastructure/database/postgres"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
)

const testMigrationsPath = "file://./migrations"

func openTestConnection(t *testing.T) *postgres.Connection {
	t.Helper()
	host := os.Getenv("INTEGRATION_TEST_DB_HOST")
	if host == "" {
		t.Skip("INTEGRATION_TEST_DB_HOST not set; skipping integration test")
	}
	cfg := config.Default().Database
	cfg.Host = host
	cfg.User = os.Getenv("INTEGRATION_TEST_DB_USER")
	cfg.Password = os.Getenv("INTEGRATION_TEST_DB_PASSWORD")

	conn, err := postgres.NewConnection(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRunMigrations_AppliesAndIsIdempotent(t *testing.T) {
	conn := openTestConnection(t)

	require.NoError(t, conn.RunMigrations(testMigrationsPath))
	require.NoError(t, conn.RunMigrations(testMigrationsPath))

	version, dirty, err := conn.MigrationStatus(testMigrationsPath)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestRollbackMigration_OneStep(t *testing.T) {
	conn := openTestConnection(t)
	require.NoError(t, conn.RunMigrations(testMigrationsPath))

	require.NoError(t, conn.RollbackMigration(testMigrationsPath, 1))
	version, _, err := conn.MigrationStatus(testMigrationsPath)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, conn.RunMigrations(testMigrationsPath))
}
