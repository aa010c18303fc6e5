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

type orderCreateArgs struct {
	Notes string          `json:"notes"`
	Lines []orderLineArgs `json:"lines" validate:"required,min=1,dive"`
}

type orderLineArgs struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
}

// OrderCreate creates a purchase order against a vendor.
func OrderCreate(ctx context.Context, d *Deps, req Request) (idempotency.WriteResult, error) {
	var args orderCreateArgs
	if err := validation.DecodeArgs(req.Args, &args); err != nil {
		return idempotency.WriteResult{}, &idempotency.ClientFaultError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	var vendorID int64
	lines := make([]models.PurchaseOrderLine, len(args.Lines))

	work := idempotency.Work{
		Prepare: func(ctx context.Context) error {
			id, err := resolveID(ctx, d, models.EntityVendor, req.Args)
			if err != nil {
				return err
			}
			vendorID = id

			rawLines, _ := req.Args["lines"].([]any)
			for i, lineArgs := range args.Lines {
				lines[i] = models.PurchaseOrderLine{
					Description:    lineArgs.Description,
					Quantity:       lineArgs.Quantity,
					UnitPriceCents: lineArgs.UnitPriceCents,
					Position:       i,
				}
				if i >= len(rawLines) {
					continue
				}
				rawLine, ok := rawLines[i].(map[string]any)
				if !ok || !hasPartReference(rawLine) {
					continue
				}
				partID, err := resolveID(ctx, d, models.EntityPart, rawLine)
				if err != nil {
					return err
				}
				lines[i].PartID = &partID
			}
			return nil
		},

		Execute: func(ctx context.Context, tx pgx.Tx) (any, error) {
			number, err := db.NextDocumentNumber(ctx, tx, "PO", time.Now().Year())
			if err != nil {
				return nil, err
			}

			var total int64
			for _, line := range lines {
				total += line.Quantity * line.UnitPriceCents
			}

			order := &models.PurchaseOrder{
				Number:     number,
				VendorID:   vendorID,
				Status:     models.DocStatusOpen,
				Notes:      args.Notes,
				TotalCents: total,
			}
			if err := db.InsertPurchaseOrder(ctx, tx, order); err != nil {
				return nil, classifyWriteError(err, "vendor id "+strconv.FormatInt(vendorID, 10)+" does not exist")
			}
			if err := db.InsertPurchaseOrderLines(ctx, tx, order.ID, lines); err != nil {
				return nil, classifyWriteError(err, "a referenced part does not exist")
			}
			return order, nil
		},

		BuildResult: func(out any) (any, error) {
			order := out.(*models.PurchaseOrder)
			return map[string]any{
				"id":          order.ID,
				"number":      order.Number,
				"status":      order.Status,
				"total_cents": order.TotalCents,
			}, nil
		},

		TargetID: func(out any) *string {
			id := strconv.FormatInt(out.(*models.PurchaseOrder).ID, 10)
			return &id
		},
	}

	return d.Coordinator.IdempotentWrite(ctx, idempotency.WriteRequest{
		Tool:     "order.create",
		TenantID: req.TenantID,
		Key:      req.Key,
		Payload:  req.Args,
	}, work)
}
