package tools

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"opsbot/internal/db"
	"opsbot/internal/idempotency"
	"opsbot/internal/models"
	"opsbot/internal/validation"
)

type taskCreateArgs struct {
	Title   string `json:"title" validate:"required,max=200"`
	Notes   string `json:"notes"`
	DueDate string `json:"due_date"` // YYYY-MM-DD, optional
}

// TaskCreate records a follow-up task. No entity resolution is involved; it
// is the smallest write tool and mostly exists so pure-metadata writes get
// the same idempotency guarantees as documents.
func TaskCreate(ctx context.Context, d *Deps, req Request) (idempotency.WriteResult, error) {
	var args taskCreateArgs
	if err := validation.DecodeArgs(req.Args, &args); err != nil {
		return idempotency.WriteResult{}, &idempotency.ClientFaultError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	var dueDate *time.Time
	if args.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", args.DueDate)
		if err != nil {
			return idempotency.WriteResult{}, &idempotency.ClientFaultError{
				Status:  http.StatusBadRequest,
				Message: "due_date must be formatted YYYY-MM-DD",
			}
		}
		dueDate = &parsed
	}

	work := idempotency.Work{
		Execute: func(ctx context.Context, tx pgx.Tx) (any, error) {
			task := &models.Task{
				Title:   args.Title,
				Notes:   args.Notes,
				DueDate: dueDate,
				Status:  models.DocStatusOpen,
			}
			if err := db.InsertTask(ctx, tx, task); err != nil {
				return nil, err
			}
			return task, nil
		},

		BuildResult: func(out any) (any, error) {
			task := out.(*models.Task)
			return map[string]any{
				"id":     task.ID,
				"title":  task.Title,
				"status": task.Status,
			}, nil
		},

		TargetID: func(out any) *string {
			id := strconv.FormatInt(out.(*models.Task).ID, 10)
			return &id
		},
	}

	return d.Coordinator.IdempotentWrite(ctx, idempotency.WriteRequest{
		Tool:     "task.create",
		TenantID: req.TenantID,
		Key:      req.Key,
		Payload:  req.Args,
	}, work)
}
