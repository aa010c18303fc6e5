// Package tools implements the write tools the agent can invoke. Every tool
// runs through the idempotency coordinator; entity references are resolved
// before the transactional phase opens.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"opsbot/internal/db"
	"opsbot/internal/idempotency"
	"opsbot/internal/models"
	"opsbot/internal/resolve"
)

// Deps bundles the collaborators a tool needs.
type Deps struct {
	DB          *db.DB
	Coordinator *idempotency.Coordinator
	Resolver    *resolve.Resolver
}

// Request is one dispatched tool call.
type Request struct {
	Key      string
	TenantID *string
	Args     map[string]any
	// Synthesized is true when the caller supplied no key and one was
	// generated; duplicate suppression is not guaranteed in that case.
	Synthesized bool
}

// ToolFunc executes one tool call.
type ToolFunc func(ctx context.Context, d *Deps, req Request) (idempotency.WriteResult, error)

// Registry maps tool names to implementations.
type Registry struct {
	deps  *Deps
	tools map[string]ToolFunc
}

// NewRegistry creates a registry with all built-in tools registered.
func NewRegistry(deps *Deps) *Registry {
	return &Registry{
		deps: deps,
		tools: map[string]ToolFunc{
			"quote.create": QuoteCreate,
			"order.create": OrderCreate,
			"order.close":  OrderClose,
			"task.create":  TaskCreate,
		},
	}
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named tool.
func (r *Registry) Dispatch(ctx context.Context, name string, req Request) (idempotency.WriteResult, error) {
	tool, ok := r.tools[name]
	if !ok {
		return idempotency.WriteResult{}, &idempotency.ClientFaultError{
			Status:  http.StatusNotFound,
			Message: "unknown tool: " + name,
		}
	}
	return tool(ctx, r.deps, req)
}

// refusalError converts a non-resolved resolution outcome into a client
// fault carrying the candidate list, so the refusal is persisted and
// replayed verbatim on retries.
func refusalError(entityType models.EntityType, outcome resolve.Outcome) error {
	var candidates []models.EntityMatch
	switch v := outcome.(type) {
	case resolve.Ambiguous:
		candidates = v.Candidates
	case resolve.LowConfidence:
		candidates = []models.EntityMatch{v.Best}
	}

	var detail json.RawMessage
	if len(candidates) > 0 {
		if encoded, err := json.Marshal(map[string]any{"candidates": candidates}); err == nil {
			detail = encoded
		}
	}

	return &idempotency.ClientFaultError{
		Status:  http.StatusUnprocessableEntity,
		Message: resolve.Guidance(entityType, outcome),
		Detail:  detail,
	}
}

// resolveID resolves one entity reference or returns the typed refusal.
func resolveID(ctx context.Context, d *Deps, entityType models.EntityType, payload map[string]any) (int64, error) {
	outcome, err := d.Resolver.Resolve(ctx, entityType, payload)
	if err != nil {
		return 0, err
	}
	if resolved, ok := outcome.(resolve.Resolved); ok {
		return resolved.ID, nil
	}
	return 0, refusalError(entityType, outcome)
}

// classifyWriteError maps referential-integrity violations (a numeric id
// pointing at a nonexistent row) to client faults; anything else stays an
// infrastructure error.
func classifyWriteError(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return &idempotency.ClientFaultError{
			Status:  http.StatusUnprocessableEntity,
			Message: message,
		}
	}
	return err
}
