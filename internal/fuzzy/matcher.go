package fuzzy

import (
	"context"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"opsbot/internal/canonical"
	"opsbot/internal/db"
	"opsbot/internal/models"
)

// Matcher ranks entities from the local database. It implements the same
// contract as Client so deployments can swap in a remote ranking service.
type Matcher struct {
	db *db.DB
}

// NewMatcher creates a database-backed matcher.
func NewMatcher(database *db.DB) *Matcher {
	return &Matcher{db: database}
}

// Search ranks all entities of entityType against the query and returns up to
// limit candidates scoring at least minScore, sorted by score descending with
// id as the tie-break.
func (m *Matcher) Search(ctx context.Context, entityType models.EntityType, query string, limit int, minScore float64) ([]models.EntityMatch, error) {
	entries, err := m.db.LoadSearchCorpus(ctx, entityType)
	if err != nil {
		return nil, err
	}

	canonQuery := canonical.Text(query)
	matches := make([]models.EntityMatch, 0, len(entries))
	for _, e := range entries {
		score := similarity(canonQuery, canonical.Text(e.Label))
		if score < minScore {
			continue
		}
		matches = append(matches, models.EntityMatch{
			ID:    e.ID,
			Label: e.Label,
			Score: score,
			Extra: e.Extra,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// similarity maps Levenshtein distance between canonical strings into [0, 1],
// where 1 is an exact match.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		if a == b {
			return 1
		}
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	score := 1 - float64(distance)/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}
