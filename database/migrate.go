package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
)

// MigrateUp applies all pending migrations
func MigrateUp(ctx context.Context, connString string) error {
	m, err := GetMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	slog.InfoContext(ctx, "Database migrations applied", "version", version, "dirty", dirty)
	return nil
}

// MigrateDown rolls back numSteps migrations. Zero rolls back everything.
func MigrateDown(ctx context.Context, connString string, numSteps int) error {
	m, err := GetMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	if numSteps > 0 {
		err = m.Steps(-numSteps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	slog.InfoContext(ctx, "Database migrations rolled back", "steps", numSteps)
	return nil
}

func closeMigrate(ctx context.Context, m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.WarnContext(ctx, "Failed to close migrate instance", "source_error", srcErr, "database_error", dbErr)
	}
}
