package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"opsbot/internal/models"
)

const ledgerColumns = `id, tenant_id, tool_name, target_id, idempotency_key,
	request_hash, status, result_json, created_at, updated_at`

func scanLedgerRecord(row pgx.Row) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := row.Scan(
		&rec.ID,
		&rec.TenantID,
		&rec.ToolName,
		&rec.TargetID,
		&rec.IdempotencyKey,
		&rec.RequestHash,
		&rec.Status,
		&rec.ResultJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertLedgerInProgress attempts to claim an idempotency key by inserting a
// new in_progress row. Returns false when a row for (tool, key) already
// exists; the unique constraint is the sole arbiter of the race.
func (d *DB) InsertLedgerInProgress(ctx context.Context, rec *models.IdempotencyRecord) (bool, error) {
	tag, err := d.Pool.Exec(ctx, `
		INSERT INTO idempotency_records (tenant_id, tool_name, target_id, idempotency_key, request_hash, status)
		VALUES ($1, $2, $3, $4, $5, 'in_progress')
		ON CONFLICT (tool_name, idempotency_key) DO NOTHING
	`, rec.TenantID, rec.ToolName, rec.TargetID, rec.IdempotencyKey, rec.RequestHash)
	if err != nil {
		return false, fmt.Errorf("failed to insert ledger record: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetLedgerRecord fetches the ledger row for (tool, key).
func (d *DB) GetLedgerRecord(ctx context.Context, tool, key string) (*models.IdempotencyRecord, error) {
	row := d.Pool.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM idempotency_records
		WHERE tool_name = $1 AND idempotency_key = $2
	`, tool, key)
	return scanLedgerRecord(row)
}

// MarkLedgerSucceeded transitions an in_progress row to succeeded and stores
// the deterministic result. Terminal rows are never updated; attempting to
// do so returns ErrNotInProgress.
func MarkLedgerSucceeded(ctx context.Context, q Querier, tool, key string, targetID *string, result json.RawMessage) error {
	tag, err := q.Exec(ctx, `
		UPDATE idempotency_records
		SET status = 'succeeded', result_json = $4, target_id = COALESCE($3, target_id), updated_at = now()
		WHERE tool_name = $1 AND idempotency_key = $2 AND status = 'in_progress'
	`, tool, key, targetID, result)
	if err != nil {
		return fmt.Errorf("failed to mark ledger record succeeded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotInProgress
	}
	return nil
}

// MarkLedgerFailedPermanent transitions an in_progress row to failed_permanent
// with the structured client-fault error so retries replay it.
func MarkLedgerFailedPermanent(ctx context.Context, q Querier, tool, key string, failure models.StoredFailure) error {
	encoded, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("failed to encode stored failure: %w", err)
	}
	tag, err := q.Exec(ctx, `
		UPDATE idempotency_records
		SET status = 'failed_permanent', result_json = $3, updated_at = now()
		WHERE tool_name = $1 AND idempotency_key = $2 AND status = 'in_progress'
	`, tool, key, encoded)
	if err != nil {
		return fmt.Errorf("failed to mark ledger record failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotInProgress
	}
	return nil
}

// CountStuckLedgerRecords counts in_progress rows older than the cutoff.
// These are never reset or marked terminal automatically; recovery is an
// operator decision.
func (d *DB) CountStuckLedgerRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	var count int64
	err := d.Pool.QueryRow(ctx, `
		SELECT count(*)
		FROM idempotency_records
		WHERE status = 'in_progress' AND created_at < now() - make_interval(secs => $1)
	`, olderThan.Seconds()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stuck ledger records: %w", err)
	}
	return count, nil
}
