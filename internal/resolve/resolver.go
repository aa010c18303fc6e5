// Package resolve maps free-text and numeric entity references from tool
// payloads to canonical database ids.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"opsbot/internal/canonical"
	"opsbot/internal/config"
	"opsbot/internal/metrics"
	"opsbot/internal/models"
)

// Searcher is the fuzzy-match collaborator contract. Matches come back
// sorted by score descending, at most limit entries.
type Searcher interface {
	Search(ctx context.Context, entityType models.EntityType, query string, limit int, minScore float64) ([]models.EntityMatch, error)
}

// PartLookup finds parts by exact canonical part number.
type PartLookup interface {
	FindPartsByCanonicalNumber(ctx context.Context, canonical string) ([]models.Part, error)
}

// Resolver resolves entity references using a fast numeric/exact path and a
// scored fuzzy fallback with confidence-banded policy. Thresholds are fixed
// at construction.
type Resolver struct {
	cfg      config.FuzzyConfig
	searcher Searcher
	parts    PartLookup
}

// New creates a Resolver.
func New(cfg config.FuzzyConfig, searcher Searcher, parts PartLookup) *Resolver {
	return &Resolver{cfg: cfg, searcher: searcher, parts: parts}
}

// textKeys lists, per entity type, the payload keys whose values are treated
// as free-text references, in priority order.
var textKeys = map[models.EntityType][]string{
	models.EntityCustomer: {"customer_name", "customer", "name"},
	models.EntityVendor:   {"vendor_name", "vendor", "name"},
	models.EntityPart:     {"part_number", "part_name", "part", "name", "description"},
}

// Resolve maps a payload's reference to entityType onto a canonical id.
// An error return means infrastructure failure; every expected outcome,
// including refusals, is an Outcome value.
func (r *Resolver) Resolve(ctx context.Context, entityType models.EntityType, payload map[string]any) (Outcome, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	// Fast path: an explicit numeric id anywhere in the payload wins
	// immediately, no further search.
	if id, ok := directNumericID(payload); ok {
		r.logAttempt(entityType, "direct_id", strconv.FormatInt(id, 10), 1, "resolved", 1)
		return Resolved{ID: id}, nil
	}

	candidates := r.textCandidates(entityType, payload)

	// Exact canonical part numbers are authoritative and bypass fuzzy
	// scoring entirely.
	if entityType == models.EntityPart {
		outcome, done, err := r.resolvePartExact(ctx, candidates)
		if err != nil {
			return nil, err
		}
		if done {
			return outcome, nil
		}
	}

	return r.resolveFuzzy(ctx, entityType, candidates)
}

// resolvePartExact tries the canonical exact-match path for parts. done is
// false when resolution should fall through to fuzzy search.
func (r *Resolver) resolvePartExact(ctx context.Context, candidates []string) (Outcome, bool, error) {
	for _, cand := range candidates {
		parts, err := r.parts.FindPartsByCanonicalNumber(ctx, cand)
		if err != nil {
			return nil, false, err
		}

		switch {
		case len(parts) == 0:
			continue

		case len(parts) == 1:
			r.logAttempt(models.EntityPart, "canonical_exact", cand, 1, "resolved", 1)
			return Resolved{ID: parts[0].ID}, true, nil

		default:
			if !r.cfg.EnforceUniquePart {
				// Uniqueness not enforced: let fuzzy search rank them.
				continue
			}
			matches := make([]models.EntityMatch, 0, len(parts))
			for _, p := range parts {
				matches = append(matches, models.EntityMatch{
					ID:    p.ID,
					Label: p.PartNumber,
					Score: 1,
					Extra: map[string]string{"description": p.Description},
				})
			}
			r.logAttempt(models.EntityPart, "canonical_exact", cand, len(parts), "ambiguous", 1)
			return Ambiguous{
				Message:    fmt.Sprintf("part number %q matches %d parts; supply the id", cand, len(parts)),
				Candidates: truncateMatches(matches, 3),
			}, true, nil
		}
	}
	return nil, false, nil
}

// resolveFuzzy runs the scored fallback over each distinct candidate text.
// Comparisons are strict >= against the immutable thresholds; scores are
// never averaged across texts. The loop returns on the first auto-accept or
// disambiguation trigger but continues past no-match and low-confidence
// texts to try the rest.
func (r *Resolver) resolveFuzzy(ctx context.Context, entityType models.EntityType, candidates []string) (Outcome, error) {
	var best *models.EntityMatch
	var bestQuery string

	for _, cand := range candidates {
		matches, err := r.searcher.Search(ctx, entityType, cand, r.cfg.MaxResults, 0)
		if err != nil {
			return nil, fmt.Errorf("fuzzy search for %s %q: %w", entityType, cand, err)
		}

		if len(matches) == 0 {
			r.logAttempt(entityType, "fuzzy", cand, 0, "no_match", 0)
			continue
		}

		top := matches[0]
		switch {
		case top.Score >= r.cfg.MinScoreAuto:
			r.logAttempt(entityType, "fuzzy", cand, len(matches), "resolved", top.Score)
			return Resolved{ID: top.ID}, nil

		case top.Score >= r.cfg.MinScoreShow:
			r.logAttempt(entityType, "fuzzy", cand, len(matches), "ambiguous", top.Score)
			return Ambiguous{
				Message: fmt.Sprintf("multiple possible %s matches for %q; supply the id or refine the name",
					entityType, cand),
				Candidates: truncateMatches(matches, 3),
			}, nil

		default:
			r.logAttempt(entityType, "fuzzy", cand, len(matches), "low_confidence", top.Score)
			if best == nil || top.Score > best.Score {
				m := top
				best = &m
				bestQuery = cand
			}
		}
	}

	// Refusal priority: low confidence beats no match beats the generic
	// "supply a numeric id".
	switch {
	case best != nil:
		return LowConfidence{Query: bestQuery, Best: *best}, nil
	case len(candidates) > 0:
		return NotFound{
			Message: fmt.Sprintf("no %s matched the supplied name; refine the name or supply the numeric id", entityType),
		}, nil
	default:
		return NotFound{
			Message: fmt.Sprintf("no usable %s reference in the request; supply a numeric %s id", entityType, entityType),
		}, nil
	}
}

// textCandidates collects distinct free-text references for entityType from
// the payload, deduplicated by canonical form, in deterministic order.
func (r *Resolver) textCandidates(entityType models.EntityType, payload map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, key := range textKeys[entityType] {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		text, ok := raw.(string)
		if !ok {
			continue
		}
		canon := canonical.Text(text)
		if canon == "" {
			continue
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		out = append(out, canon)
	}
	return out
}

// directNumericID scans the payload, and one level of nested objects, for
// keys containing "id" whose value parses as a finite number. The first such
// value, in sorted key order, is accepted.
func directNumericID(payload map[string]any) (int64, bool) {
	if id, ok := scanLevelForID(payload); ok {
		return id, true
	}
	for _, key := range sortedKeys(payload) {
		if nested, ok := payload[key].(map[string]any); ok {
			if id, found := scanLevelForID(nested); found {
				return id, true
			}
		}
	}
	return 0, false
}

func scanLevelForID(obj map[string]any) (int64, bool) {
	for _, key := range sortedKeys(obj) {
		if !strings.Contains(strings.ToLower(key), "id") {
			continue
		}
		if f, ok := asFiniteNumber(obj[key]); ok {
			return int64(f), true
		}
	}
	return 0, false
}

func asFiniteNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateMatches(matches []models.EntityMatch, n int) []models.EntityMatch {
	if len(matches) <= n {
		return matches
	}
	return matches[:n]
}

// logAttempt emits the structured analytics event for one resolution
// attempt. Analytics must never block or fail resolution.
func (r *Resolver) logAttempt(entityType models.EntityType, strategy, query string, candidateCount int, outcome string, topScore float64) {
	slog.Info("entity resolution attempt",
		"entity_type", string(entityType),
		"strategy", strategy,
		"query", query,
		"candidates", candidateCount,
		"outcome", outcome,
		"top_score", topScore,
	)
	metrics.RecordResolution(string(entityType), strategy, outcome)
}
