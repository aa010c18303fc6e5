// Package idempotency coordinates at-most-once execution of side-effecting
// tool calls against a persistent ledger keyed on (tool, idempotency key).
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"opsbot/internal/canonical"
	"opsbot/internal/db"
	"opsbot/internal/metrics"
	"opsbot/internal/models"
)

// DefaultWaitTimeout bounds how long a duplicate caller waits for the first
// caller's in-flight result. It never aborts the first caller's work.
const DefaultWaitTimeout = 2 * time.Second

const minPollInterval = 50 * time.Millisecond

// WriteRequest identifies one logical write.
type WriteRequest struct {
	Tool     string
	TenantID *string
	Key      string
	Payload  any
	// Timeout overrides the coordinator's wait timeout when positive.
	Timeout time.Duration
}

// Work is the unit of business work bound to one ledger entry.
//
// Prepare runs after ownership of the key is won and before the transaction
// opens; entity resolution and other network I/O belong here so no pooled
// connection is held during external calls. Execute runs inside the
// transaction that also records the ledger outcome. BuildResult maps the work
// output to the deterministic result returned to every caller; when nil the
// output itself is used. TargetID optionally extracts the created row's id
// for the ledger record.
type Work struct {
	Prepare     func(ctx context.Context) error
	Execute     func(ctx context.Context, tx pgx.Tx) (any, error)
	BuildResult func(workResult any) (any, error)
	TargetID    func(workResult any) *string
}

// WriteResult is the outcome of an idempotent write. Processing is set when a
// duplicate caller's wait deadline elapsed while the original call was still
// in flight; the caller should retry later.
type WriteResult struct {
	Result     json.RawMessage
	Processing bool
}

// Coordinator runs tool work at most once per (tool, key), relying solely on
// the ledger's unique constraint to arbitrate concurrent claims.
type Coordinator struct {
	db          *db.DB
	waitTimeout time.Duration
}

// New creates a Coordinator. waitTimeout <= 0 selects DefaultWaitTimeout.
func New(database *db.DB, waitTimeout time.Duration) *Coordinator {
	if waitTimeout <= 0 {
		waitTimeout = DefaultWaitTimeout
	}
	return &Coordinator{db: database, waitTimeout: waitTimeout}
}

// IdempotentWrite executes work at most once for (req.Tool, req.Key).
//
// The first caller to claim the key runs the work inside a transaction that
// also records the outcome. Duplicate callers get the stored result, the
// stored failure, a conflict error if their payload differs canonically, or
// a processing sentinel if the original call is still in flight past the
// wait deadline.
func (c *Coordinator) IdempotentWrite(ctx context.Context, req WriteRequest, work Work) (WriteResult, error) {
	hash := canonical.HashPayload(req.Payload)

	inserted, err := c.db.InsertLedgerInProgress(ctx, &models.IdempotencyRecord{
		TenantID:       req.TenantID,
		ToolName:       req.Tool,
		IdempotencyKey: req.Key,
		RequestHash:    hash,
	})
	if err != nil {
		return WriteResult{}, err
	}

	if inserted {
		return c.runOwned(ctx, req, hash, work)
	}
	return c.awaitExisting(ctx, req, hash)
}

// runOwned executes the work for the caller that won the insert.
func (c *Coordinator) runOwned(ctx context.Context, req WriteRequest, hash string, work Work) (WriteResult, error) {
	if work.Prepare != nil {
		if err := work.Prepare(ctx); err != nil {
			return WriteResult{}, c.handleOwnedFailure(ctx, req, err)
		}
	}

	result, err := db.WithTx(ctx, c.db.Pool, func(tx pgx.Tx) (json.RawMessage, error) {
		out, err := work.Execute(ctx, tx)
		if err != nil {
			return nil, err
		}

		built := out
		if work.BuildResult != nil {
			built, err = work.BuildResult(out)
			if err != nil {
				return nil, err
			}
		}

		encoded, err := json.Marshal(built)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool result: %w", err)
		}

		var targetID *string
		if work.TargetID != nil {
			targetID = work.TargetID(out)
		}

		if err := db.MarkLedgerSucceeded(ctx, tx, req.Tool, req.Key, targetID, encoded); err != nil {
			return nil, err
		}
		return encoded, nil
	})
	if err != nil {
		return WriteResult{}, c.handleOwnedFailure(ctx, req, err)
	}

	metrics.RecordToolWrite(req.Tool, "executed")
	slog.Info("tool write executed", "tool", req.Tool, "key", req.Key, "hash", hash)
	return WriteResult{Result: result}, nil
}

// handleOwnedFailure classifies a failure of the owning caller's work.
// Explicit client faults become terminal so retries replay the same refusal;
// everything else propagates unchanged with the ledger row intentionally left
// in_progress, so a retry with the same key can attempt the work again.
func (c *Coordinator) handleOwnedFailure(ctx context.Context, req WriteRequest, workErr error) error {
	var fault *ClientFaultError
	if !errors.As(workErr, &fault) {
		metrics.RecordToolWrite(req.Tool, "infra_error")
		slog.Error("tool write failed", "tool", req.Tool, "key", req.Key, "error", workErr)
		return workErr
	}

	failure := models.StoredFailure{
		Status:  fault.Status,
		Message: fault.Message,
		Detail:  fault.Detail,
	}
	if failure.Status == 0 {
		failure.Status = http.StatusUnprocessableEntity
	}

	if err := db.MarkLedgerFailedPermanent(ctx, c.db.Pool, req.Tool, req.Key, failure); err != nil {
		slog.Error("failed to persist permanent failure", "tool", req.Tool, "key", req.Key, "error", err)
	}

	metrics.RecordToolWrite(req.Tool, "client_fault")
	slog.Info("tool write refused", "tool", req.Tool, "key", req.Key, "status", failure.Status, "message", failure.Message)
	return fault
}

// awaitExisting handles a caller whose insert lost to an existing row.
func (c *Coordinator) awaitExisting(ctx context.Context, req WriteRequest, hash string) (WriteResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.waitTimeout
	}
	deadline := time.Now().Add(timeout)
	interval := pollInterval(timeout)

	for {
		rec, err := c.db.GetLedgerRecord(ctx, req.Tool, req.Key)
		if err != nil {
			return WriteResult{}, err
		}

		// The hash is re-checked on every poll: a conflicting payload must
		// fail fast even while the original request is still running.
		if rec.RequestHash != hash {
			metrics.RecordToolWrite(req.Tool, "conflict")
			return WriteResult{}, &ConflictError{Tool: req.Tool, Key: req.Key}
		}

		switch rec.Status {
		case models.StatusSucceeded:
			metrics.RecordToolWrite(req.Tool, "replayed")
			slog.Info("tool write replayed", "tool", req.Tool, "key", req.Key)
			return WriteResult{Result: rec.ResultJSON}, nil

		case models.StatusFailedPermanent:
			var failure models.StoredFailure
			if err := json.Unmarshal(rec.ResultJSON, &failure); err != nil {
				return WriteResult{}, fmt.Errorf("failed to decode stored failure: %w", err)
			}
			metrics.RecordToolWrite(req.Tool, "replayed_failure")
			return WriteResult{}, &ReplayedFailure{
				Status:  failure.Status,
				Message: failure.Message,
				Detail:  failure.Detail,
			}

		case models.StatusInProgress:
			if time.Now().After(deadline) {
				// Never an error and never an unbounded wait: the caller is
				// told the original request is still being processed.
				metrics.RecordToolWrite(req.Tool, "processing")
				slog.Info("tool write still processing", "tool", req.Tool, "key", req.Key)
				return WriteResult{Processing: true}, nil
			}
			time.Sleep(interval)

		default:
			return WriteResult{}, fmt.Errorf("unknown ledger status %q", rec.Status)
		}
	}
}

// pollInterval derives the ledger re-read interval from the wait timeout,
// clamped so short timeouts never busy-poll.
func pollInterval(timeout time.Duration) time.Duration {
	interval := timeout / 10
	if interval < minPollInterval {
		return minPollInterval
	}
	return interval
}
