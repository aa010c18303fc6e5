package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// jsonErrorDetail returns an error response carrying structured detail, such
// as a disambiguation candidate list.
func jsonErrorDetail(c fiber.Ctx, status int, message string, detail json.RawMessage) error {
	body := fiber.Map{
		"status": "error",
		"error":  message,
	}
	if len(detail) > 0 {
		body["detail"] = detail
	}
	return c.Status(status).JSON(body)
}
