package models

import "time"

// EntityType identifies which kind of business entity a reference points at.
type EntityType string

const (
	EntityCustomer EntityType = "customer"
	EntityVendor   EntityType = "vendor"
	EntityPart     EntityType = "part"
)

// Valid reports whether the entity type is one the resolver knows about.
func (t EntityType) Valid() bool {
	switch t {
	case EntityCustomer, EntityVendor, EntityPart:
		return true
	}
	return false
}

// EntityMatch is one scored candidate returned by the fuzzy-match collaborator.
type EntityMatch struct {
	ID    int64             `json:"id"`
	Label string            `json:"label"`
	Score float64           `json:"score"`
	Extra map[string]string `json:"extra,omitempty"`
}

// SearchResponse is the wire shape of the fuzzy-match collaborator.
type SearchResponse struct {
	Matches []EntityMatch `json:"matches"`
}

// Customer is a buyer the agent creates quotes for.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Vendor is a supplier the agent creates purchase orders against.
type Vendor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

// Part is a catalog item referenced by quote and order lines.
type Part struct {
	ID              int64     `json:"id"`
	PartNumber      string    `json:"part_number"`
	CanonicalNumber string    `json:"canonical_number"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}
