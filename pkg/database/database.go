package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported DATABASE_DRIVER values
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

// Client holds the database handle and the driver it was opened with
type Client struct {
	DB     *sql.DB
	Driver string
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int           // Maximum number of open connections
	MaxIdleConns    int           // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum amount of time a connection may be reused
	ConnMaxIdleTime time.Duration // Maximum amount of time a connection may be idle
}

// SSLConfig holds SSL/TLS configuration for postgres connections
type SSLConfig struct {
	Mode         string // disable, require, verify-ca, verify-full
	CertPath     string
	KeyPath      string
	RootCertPath string
}

// DefaultPoolConfig returns the pool used when nothing is configured
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// BuildConnectionString adds SSL parameters to a postgres URL
func BuildConnectionString(baseURL string, sslCfg *SSLConfig) (string, error) {
	if sslCfg == nil {
		return baseURL, nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	query := parsedURL.Query()
	if sslCfg.Mode != "" {
		query.Set("sslmode", sslCfg.Mode)
	}
	if sslCfg.CertPath != "" {
		query.Set("sslcert", sslCfg.CertPath)
	}
	if sslCfg.KeyPath != "" {
		query.Set("sslkey", sslCfg.KeyPath)
	}
	if sslCfg.RootCertPath != "" {
		query.Set("sslrootcert", sslCfg.RootCertPath)
	}
	parsedURL.RawQuery = query.Encode()

	return parsedURL.String(), nil
}

// NewClient opens the database with the default pool and applies migrations
func NewClient(driver, databaseURL string) (*Client, error) {
	return NewClientWithPool(driver, databaseURL, DefaultPoolConfig())
}

// NewClientWithPool opens the database, configures the pool and applies migrations
func NewClientWithPool(driver, databaseURL string, poolCfg PoolConfig) (*Client, error) {
	client, err := Open(driver, databaseURL, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := client.Migrate(context.Background()); err != nil {
		client.Close()
		return nil, err
	}

	log.Println("✅ Database connected and migrations applied")
	return client, nil
}

// Open opens and pings the database without touching the schema
func Open(driver, databaseURL string, poolCfg PoolConfig) (*Client, error) {
	switch driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single connection keeps in-memory databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(poolCfg.MaxOpenConns)
		db.SetMaxIdleConns(poolCfg.MaxIdleConns)
		db.SetConnMaxLifetime(poolCfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

		log.Printf("✅ Database connection pool configured (max_open: %d, max_idle: %d, max_lifetime: %s)",
			poolCfg.MaxOpenConns, poolCfg.MaxIdleConns, poolCfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed connecting to %s: %w", driver, err)
	}

	return &Client{DB: db, Driver: driver}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.DB.Close()
}

// Ping checks if the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (c *Client) Stats() sql.DBStats {
	return c.DB.Stats()
}

// WithTx runs fn inside a transaction, rolling back when fn fails
func (c *Client) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("⚠️  Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
