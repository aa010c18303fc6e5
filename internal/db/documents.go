package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"opsbot/internal/models"
)

// NextDocumentNumber allocates the next document number for a prefix within a
// year, formatted like QO-2025-00001. The upsert on doc_sequences takes a row
// lock, so concurrent transactions serialize on the (prefix, year) row and
// numbers are unique.
func NextDocumentNumber(ctx context.Context, q Querier, prefix string, year int) (string, error) {
	var value int64
	err := q.QueryRow(ctx, `
		INSERT INTO doc_sequences (prefix, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year) DO UPDATE SET last_value = doc_sequences.last_value + 1
		RETURNING last_value
	`, prefix, year).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("failed to allocate document number: %w", err)
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, value), nil
}

// InsertQuote inserts a quote header and returns it with generated fields.
func InsertQuote(ctx context.Context, q Querier, quote *models.Quote) error {
	err := q.QueryRow(ctx, `
		INSERT INTO quotes (number, customer_id, status, notes, total_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, quote.Number, quote.CustomerID, quote.Status, quote.Notes, quote.TotalCents).
		Scan(&quote.ID, &quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// InsertQuoteLines inserts all line items for a quote in caller order.
func InsertQuoteLines(ctx context.Context, q Querier, quoteID int64, lines []models.QuoteLine) error {
	for i := range lines {
		line := &lines[i]
		err := q.QueryRow(ctx, `
			INSERT INTO quote_lines (quote_id, part_id, description, quantity, unit_price_cents, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, quoteID, line.PartID, line.Description, line.Quantity, line.UnitPriceCents, line.Position).
			Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to insert quote line %d: %w", line.Position, err)
		}
		line.QuoteID = quoteID
	}
	return nil
}

// InsertPurchaseOrder inserts a purchase order header.
func InsertPurchaseOrder(ctx context.Context, q Querier, order *models.PurchaseOrder) error {
	err := q.QueryRow(ctx, `
		INSERT INTO purchase_orders (number, vendor_id, status, notes, total_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, order.Number, order.VendorID, order.Status, order.Notes, order.TotalCents).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}
	return nil
}

// InsertPurchaseOrderLines inserts all line items for a purchase order.
func InsertPurchaseOrderLines(ctx context.Context, q Querier, orderID int64, lines []models.PurchaseOrderLine) error {
	for i := range lines {
		line := &lines[i]
		err := q.QueryRow(ctx, `
			INSERT INTO purchase_order_lines (order_id, part_id, description, quantity, unit_price_cents, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, orderID, line.PartID, line.Description, line.Quantity, line.UnitPriceCents, line.Position).
			Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to insert purchase order line %d: %w", line.Position, err)
		}
		line.OrderID = orderID
	}
	return nil
}

// LockPurchaseOrder fetches a purchase order with a row lock so a
// read-then-conditionally-write (such as an idempotent close) is safe against
// concurrent writers of the same order.
func LockPurchaseOrder(ctx context.Context, q Querier, id int64) (*models.PurchaseOrder, error) {
	var o models.PurchaseOrder
	err := q.QueryRow(ctx, `
		SELECT id, number, vendor_id, status, notes, total_cents, closed_at, created_at, updated_at
		FROM purchase_orders
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&o.ID, &o.Number, &o.VendorID, &o.Status, &o.Notes, &o.TotalCents, &o.ClosedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock purchase order: %w", err)
	}
	return &o, nil
}

// ClosePurchaseOrder marks a purchase order closed.
func ClosePurchaseOrder(ctx context.Context, q Querier, id int64, closedAt time.Time) error {
	tag, err := q.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $2, closed_at = $3, updated_at = now()
		WHERE id = $1
	`, id, models.DocStatusClosed, closedAt)
	if err != nil {
		return fmt.Errorf("failed to close purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// InsertTask inserts a follow-up task.
func InsertTask(ctx context.Context, q Querier, task *models.Task) error {
	err := q.QueryRow(ctx, `
		INSERT INTO tasks (title, notes, due_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, task.Title, task.Notes, task.DueDate, task.Status).
		Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// CountQuotes returns the number of quote headers. Used by tests to verify
// at-most-once execution.
func (d *DB) CountQuotes(ctx context.Context) (int64, error) {
	var count int64
	if err := d.Pool.QueryRow(ctx, `SELECT count(*) FROM quotes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return count, nil
}
