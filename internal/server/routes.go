package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsbot/internal/handlers/api"
)

// Handlers bundles the API handlers registered on the server.
type Handlers struct {
	Tools  *api.ToolsHandler
	Search *api.SearchHandler
	Health *api.HealthHandler
}

// RegisterRoutes wires all routes onto the app.
func (s *Server) RegisterRoutes(h *Handlers) {
	s.App.Post("/api/tools/:name", h.Tools.Invoke)
	s.App.Get("/search/fuzzy", h.Search.Fuzzy)
	s.App.Get("/api/health", h.Health.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
