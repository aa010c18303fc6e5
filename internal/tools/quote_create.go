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

type quoteCreateArgs struct {
	Notes string          `json:"notes"`
	Lines []quoteLineArgs `json:"lines" validate:"required,min=1,dive"`
}

type quoteLineArgs struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
}

// QuoteCreate creates a sales quote with line items. The customer reference
// and any part references are resolved before the transaction opens.
func QuoteCreate(ctx context.Context, d *Deps, req Request) (idempotency.WriteResult, error) {
	var args quoteCreateArgs
	if err := validation.DecodeArgs(req.Args, &args); err != nil {
		return idempotency.WriteResult{}, &idempotency.ClientFaultError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	var customerID int64
	lines := make([]models.QuoteLine, len(args.Lines))

	work := idempotency.Work{
		Prepare: func(ctx context.Context) error {
			id, err := resolveID(ctx, d, models.EntityCustomer, req.Args)
			if err != nil {
				return err
			}
			customerID = id

			rawLines, _ := req.Args["lines"].([]any)
			for i, lineArgs := range args.Lines {
				lines[i] = models.QuoteLine{
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
			number, err := db.NextDocumentNumber(ctx, tx, "QO", time.Now().Year())
			if err != nil {
				return nil, err
			}

			var total int64
			for _, line := range lines {
				total += line.Quantity * line.UnitPriceCents
			}

			quote := &models.Quote{
				Number:     number,
				CustomerID: customerID,
				Status:     models.DocStatusOpen,
				Notes:      args.Notes,
				TotalCents: total,
			}
			if err := db.InsertQuote(ctx, tx, quote); err != nil {
				return nil, classifyWriteError(err, "customer id "+strconv.FormatInt(customerID, 10)+" does not exist")
			}
			if err := db.InsertQuoteLines(ctx, tx, quote.ID, lines); err != nil {
				return nil, classifyWriteError(err, "a referenced part does not exist")
			}
			return quote, nil
		},

		BuildResult: func(out any) (any, error) {
			quote := out.(*models.Quote)
			return map[string]any{
				"id":          quote.ID,
				"number":      quote.Number,
				"status":      quote.Status,
				"total_cents": quote.TotalCents,
			}, nil
		},

		TargetID: func(out any) *string {
			id := strconv.FormatInt(out.(*models.Quote).ID, 10)
			return &id
		},
	}

	return d.Coordinator.IdempotentWrite(ctx, idempotency.WriteRequest{
		Tool:     "quote.create",
		TenantID: req.TenantID,
		Key:      req.Key,
		Payload:  req.Args,
	}, work)
}

// hasPartReference reports whether a line carries any part reference at all.
// Lines without one are free-text lines and skip part resolution.
func hasPartReference(line map[string]any) bool {
	for _, key := range []string{"part_id", "part_number", "part_name", "part"} {
		if _, ok := line[key]; ok {
			return true
		}
	}
	return false
}
