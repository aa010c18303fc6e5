package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsbot/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx,
// so query helpers can run either on the pool or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedDevEntities inserts demo customers, vendors, and parts for development.
// Skips rows that already exist.
func (d *DB) SeedDevEntities(ctx context.Context) error {
	customers := []struct{ name, city, email string }{
		{"Acme Corp", "Springfield", "orders@acme.example"},
		{"Acme Industrial Supply", "Shelbyville", "sales@acmeindustrial.example"},
		{"Globex Corporation", "Cypress Creek", "purchasing@globex.example"},
	}
	for _, c := range customers {
		if _, err := d.Pool.Exec(ctx, `
			INSERT INTO customers (name, city, email)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM customers WHERE name = $1)
		`, c.name, c.city, c.email); err != nil {
			return fmt.Errorf("failed to seed customer %s: %w", c.name, err)
		}
	}

	vendors := []struct{ name, city string }{
		{"Fastener World", "Toledo"},
		{"Precision Metals Inc", "Gary"},
	}
	for _, v := range vendors {
		if _, err := d.Pool.Exec(ctx, `
			INSERT INTO vendors (name, city)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM vendors WHERE name = $1)
		`, v.name, v.city); err != nil {
			return fmt.Errorf("failed to seed vendor %s: %w", v.name, err)
		}
	}

	parts := []struct{ number, canonical, description string }{
		{"HX-100-A", "hx 100 a", "Hex bolt, 10mm"},
		{"HX-100-B", "hx 100 b", "Hex bolt, 12mm"},
		{"WSH-55", "wsh 55", "Flat washer, 5.5mm"},
	}
	for _, p := range parts {
		if _, err := d.Pool.Exec(ctx, `
			INSERT INTO parts (part_number, canonical_number, description)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM parts WHERE part_number = $1)
		`, p.number, p.canonical, p.description); err != nil {
			return fmt.Errorf("failed to seed part %s: %w", p.number, err)
		}
	}

	return nil
}
