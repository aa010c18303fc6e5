package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"opsbot/internal/idempotency"
	"opsbot/internal/tools"
)

// IdempotencyHeader carries the idempotency key when the body omits it.
const IdempotencyHeader = "X-Idempotency-Key"

// ToolsHandler dispatches tool calls via JSON API.
type ToolsHandler struct {
	registry *tools.Registry
}

// NewToolsHandler creates a new API tools handler.
func NewToolsHandler(registry *tools.Registry) *ToolsHandler {
	return &ToolsHandler{registry: registry}
}

type toolCallBody struct {
	IdempotencyKey string         `json:"idempotency_key"`
	TenantID       *string        `json:"tenant_id"`
	Args           map[string]any `json:"args"`
}

// Invoke runs one tool call. Every response is deterministic: the stored
// result, a typed refusal with next steps, or an explicit processing signal.
func (h *ToolsHandler) Invoke(c fiber.Ctx) error {
	var body toolCallBody
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
		}
	}
	if body.Args == nil {
		body.Args = map[string]any{}
	}

	key := body.IdempotencyKey
	if key == "" {
		key = c.Get(IdempotencyHeader)
	}

	// A synthesized key makes the call traceable but carries no
	// duplicate-suppression guarantee across retries.
	synthesized := false
	if key == "" {
		key = uuid.NewString()
		synthesized = true
	}
	c.Set(IdempotencyHeader, key)

	result, err := h.registry.Dispatch(c.Context(), c.Params("name"), tools.Request{
		Key:         key,
		TenantID:    body.TenantID,
		Args:        body.Args,
		Synthesized: synthesized,
	})
	if err != nil {
		return toolError(c, err)
	}

	if result.Processing {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "processing",
		})
	}

	return jsonSuccess(c, result.Result)
}

// toolError maps the idempotency error taxonomy onto HTTP statuses.
func toolError(c fiber.Ctx, err error) error {
	var conflict *idempotency.ConflictError
	if errors.As(err, &conflict) {
		return jsonError(c, fiber.StatusConflict, conflict.Error())
	}

	var replayed *idempotency.ReplayedFailure
	if errors.As(err, &replayed) {
		return jsonErrorDetail(c, replayed.Status, replayed.Message, replayed.Detail)
	}

	var fault *idempotency.ClientFaultError
	if errors.As(err, &fault) {
		return jsonErrorDetail(c, fault.Status, fault.Message, fault.Detail)
	}

	return jsonError(c, fiber.StatusInternalServerError, "tool execution failed")
}
