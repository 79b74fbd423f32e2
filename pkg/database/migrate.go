package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func (c *Client) gooseDialect() string {
	if c.Driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

func (c *Client) prepareGoose() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(c.gooseDialect()); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending migration
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.prepareGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, c.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration
func (c *Client) MigrateDown(ctx context.Context) error {
	if err := c.prepareGoose(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, c.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// MigrationStatus prints the applied state of each migration through goose's logger
func (c *Client) MigrationStatus(ctx context.Context) error {
	if err := c.prepareGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, c.DB, migrationsDir)
}

// SchemaVersion returns the current migration version
func (c *Client) SchemaVersion(ctx context.Context) (int64, error) {
	if err := c.prepareGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, c.DB)
}
