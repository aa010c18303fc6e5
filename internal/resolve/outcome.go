package resolve

import (
	"fmt"

	"opsbot/internal/models"
)

// Outcome is the result of one entity resolution attempt. Expected
// non-resolutions (ambiguity, low confidence, no match) are values, not
// errors; callers translate them into refusals.
type Outcome interface {
	outcome()
}

// Resolved carries the canonical id of the matched entity.
type Resolved struct {
	ID int64
}

// Ambiguous means the reference plausibly matches several entities. The
// caller should present the candidates and ask for an id, never guess.
type Ambiguous struct {
	Message    string
	Candidates []models.EntityMatch
}

// LowConfidence means no candidate scored well enough to even present.
// Best is the closest candidate seen across all attempted texts.
type LowConfidence struct {
	Query string
	Best  models.EntityMatch
}

// NotFound means no usable reference was found at all.
type NotFound struct {
	Message string
}

func (Resolved) outcome()      {}
func (Ambiguous) outcome()     {}
func (LowConfidence) outcome() {}
func (NotFound) outcome()      {}

// Guidance renders the actionable next step for a non-resolved outcome.
func Guidance(entityType models.EntityType, o Outcome) string {
	switch v := o.(type) {
	case Ambiguous:
		return v.Message
	case LowConfidence:
		return fmt.Sprintf("no confident %s match for %q; closest was %q (score %.2f). Refine the name or supply the numeric id.",
			entityType, v.Query, v.Best.Label, v.Best.Score)
	case NotFound:
		return v.Message
	}
	return ""
}
