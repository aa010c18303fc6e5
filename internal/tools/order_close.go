package tools

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"opsbot/internal/db"
	"opsbot/internal/idempotency"
	"opsbot/internal/models"
	"opsbot/internal/validation"
)

type orderCloseArgs struct {
	OrderID int64  `json:"order_id" validate:"required,gt=0"`
	Reason  string `json:"reason"`
}

// OrderClose closes a purchase order. The row lock makes the
// read-then-conditionally-write safe against concurrent closers; closing an
// already-closed order succeeds and reports the existing state.
func OrderClose(ctx context.Context, d *Deps, req Request) (idempotency.WriteResult, error) {
	var args orderCloseArgs
	if err := validation.DecodeArgs(req.Args, &args); err != nil {
		return idempotency.WriteResult{}, &idempotency.ClientFaultError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	work := idempotency.Work{
		Execute: func(ctx context.Context, tx pgx.Tx) (any, error) {
			order, err := db.LockPurchaseOrder(ctx, tx, args.OrderID)
			if err != nil {
				if errors.Is(err, db.ErrOrderNotFound) {
					return nil, &idempotency.ClientFaultError{
						Status:  http.StatusNotFound,
						Message: "purchase order " + strconv.FormatInt(args.OrderID, 10) + " not found",
					}
				}
				return nil, err
			}

			if order.Status == models.DocStatusClosed {
				return order, nil
			}

			now := time.Now()
			if err := db.ClosePurchaseOrder(ctx, tx, order.ID, now); err != nil {
				return nil, err
			}
			order.Status = models.DocStatusClosed
			order.ClosedAt = &now
			return order, nil
		},

		BuildResult: func(out any) (any, error) {
			order := out.(*models.PurchaseOrder)
			return map[string]any{
				"id":     order.ID,
				"number": order.Number,
				"status": order.Status,
			}, nil
		},

		TargetID: func(out any) *string {
			id := strconv.FormatInt(out.(*models.PurchaseOrder).ID, 10)
			return &id
		},
	}

	return d.Coordinator.IdempotentWrite(ctx, idempotency.WriteRequest{
		Tool:     "order.close",
		TenantID: req.TenantID,
		Key:      req.Key,
		Payload:  req.Args,
	}, work)
}
