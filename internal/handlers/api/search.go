package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"opsbot/internal/models"
	"opsbot/internal/resolve"
)

const searchCacheTTL = 30 * time.Second

// SearchHandler serves the fuzzy-match collaborator contract:
// GET /search/fuzzy?type=&q=&limit=&minScore=
type SearchHandler struct {
	matcher resolve.Searcher
	cache   fiber.Storage // optional response cache, may be nil
}

// NewSearchHandler creates a new fuzzy search handler.
func NewSearchHandler(matcher resolve.Searcher, cache fiber.Storage) *SearchHandler {
	return &SearchHandler{matcher: matcher, cache: cache}
}

// Fuzzy ranks entities of one type against a query.
func (h *SearchHandler) Fuzzy(c fiber.Ctx) error {
	entityType := models.EntityType(c.Query("type"))
	if !entityType.Valid() {
		return jsonError(c, fiber.StatusBadRequest, "type must be one of customer, vendor, part")
	}

	query := c.Query("q")
	if query == "" {
		return jsonError(c, fiber.StatusBadRequest, "q is required")
	}

	limit := parseIntParam(c.Query("limit"), 10, 1, 50)
	minScore := parseFloatParam(c.Query("minScore"), 0, 0, 1)

	cacheKey := fmt.Sprintf("fuzzy/%s/%s/%d/%.4f", entityType, query, limit, minScore)
	if h.cache != nil {
		if cached, err := h.cache.Get(cacheKey); err == nil && len(cached) > 0 {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cached)
		}
	}

	matches, err := h.matcher.Search(c.Context(), entityType, query, limit, minScore)
	if err != nil {
		slog.Error("fuzzy search failed", "type", entityType, "query", query, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "search failed")
	}
	if matches == nil {
		matches = []models.EntityMatch{}
	}

	encoded, err := json.Marshal(models.SearchResponse{Matches: matches})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "search failed")
	}

	if h.cache != nil {
		// Cache misses are harmless; never fail the request over the cache.
		if err := h.cache.Set(cacheKey, encoded, searchCacheTTL); err != nil {
			slog.Error("failed to cache search response", "key", cacheKey, "error", err)
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(encoded)
}

func parseIntParam(raw string, fallback, min, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func parseFloatParam(raw string, fallback, min, max float64) float64 {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
