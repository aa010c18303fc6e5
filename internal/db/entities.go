package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"opsbot/internal/models"
)

// FindPartsByCanonicalNumber returns all parts whose canonical part number
// exactly matches the supplied canonical text.
func (d *DB) FindPartsByCanonicalNumber(ctx context.Context, canonical string) ([]models.Part, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, part_number, canonical_number, description, created_at
		FROM parts
		WHERE canonical_number = $1
		ORDER BY id
	`, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts by canonical number: %w", err)
	}
	defer rows.Close()

	var parts []models.Part
	for rows.Next() {
		var p models.Part
		if err := rows.Scan(&p.ID, &p.PartNumber, &p.CanonicalNumber, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// GetCustomerByID fetches a single customer.
func (d *DB) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := d.Pool.QueryRow(ctx, `
		SELECT id, name, city, email, created_at FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.City, &c.Email, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return &c, nil
}

// GetVendorByID fetches a single vendor.
func (d *DB) GetVendorByID(ctx context.Context, id int64) (*models.Vendor, error) {
	var v models.Vendor
	err := d.Pool.QueryRow(ctx, `
		SELECT id, name, city, created_at FROM vendors WHERE id = $1
	`, id).Scan(&v.ID, &v.Name, &v.City, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vendor: %w", err)
	}
	return &v, nil
}

// SearchCorpusEntry is one entity loaded for fuzzy ranking: its id, the label
// shown to callers, and distinguishing attributes for disambiguation prompts.
type SearchCorpusEntry struct {
	ID    int64
	Label string
	Extra map[string]string
}

// LoadSearchCorpus loads all entities of one type for the built-in fuzzy
// matcher. The corpus is small (catalog-sized, not event-sized), so loading
// it per query keeps results consistent with concurrent writes.
func (d *DB) LoadSearchCorpus(ctx context.Context, entityType models.EntityType) ([]SearchCorpusEntry, error) {
	var query string
	switch entityType {
	case models.EntityCustomer:
		query = `SELECT id, name, jsonb_build_object('city', city, 'email', email) FROM customers ORDER BY id`
	case models.EntityVendor:
		query = `SELECT id, name, jsonb_build_object('city', city) FROM vendors ORDER BY id`
	case models.EntityPart:
		query = `SELECT id, part_number, jsonb_build_object('description', description) FROM parts ORDER BY id`
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load search corpus: %w", err)
	}
	defer rows.Close()

	var entries []SearchCorpusEntry
	for rows.Next() {
		var e SearchCorpusEntry
		if err := rows.Scan(&e.ID, &e.Label, &e.Extra); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
