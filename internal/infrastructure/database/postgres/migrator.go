package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/syclop/pkg/errors"
)

// migrationDriver is the name golang-migrate registers for pgx/v5.
const migrationDriver = "pgx5"

func (c *Connection) newMigrate(migrationsPath string) (*migrate.Migrate, error) {
	driver, err := pgxmigrate.WithInstance(c.db, &pgxmigrate.Config{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, migrationDriver, driver)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return m, nil
}

// RunMigrations applies every pending migration found at migrationsPath
// (a golang-migrate source URL such as "file://migrations").  No pending
// migrations is not an error.
func (c *Connection) RunMigrations(migrationsPath string) error {
	m, err := c.newMigrate(migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError,
			fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		c.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	c.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// RollbackMigration rolls the schema back by steps migrations.
func (c *Connection) RollbackMigration(migrationsPath string, steps int) error {
	if steps <= 0 {
		return pkgerrors.InvalidParam(fmt.Sprintf("steps must be greater than 0, got %d", steps))
	}
	m, err := c.newMigrate(migrationsPath)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return pkgerrors.New(pkgerrors.ErrCodeDatabaseError, "no migrations to roll back")
		}
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, fmt.Sprintf("failed to rollback %d step(s)", steps))
	}
	return nil
}

// MigrationStatus returns the applied version and whether a previous
// migration left the schema dirty.  An empty schema reports version 0.
func (c *Connection) MigrationStatus(migrationsPath string) (version uint, dirty bool, err error) {
	m, err := c.newMigrate(migrationsPath)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return version, dirty, nil
}
