package models

import "time"

// Document statuses shared by quotes and purchase orders.
const (
	DocStatusOpen   = "Open"
	DocStatusClosed = "Closed"
)

// Quote is a sales quote header.
type Quote struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	CustomerID int64     `json:"customer_id"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuoteLine is one line item on a quote. Position preserves caller order.
type QuoteLine struct {
	ID             int64  `json:"id"`
	QuoteID        int64  `json:"quote_id"`
	PartID         *int64 `json:"part_id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Position       int    `json:"position"`
}

// PurchaseOrder is a purchase order header.
type PurchaseOrder struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	VendorID   int64      `json:"vendor_id"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes"`
	TotalCents int64      `json:"total_cents"`
	ClosedAt   *time.Time `json:"closed_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PurchaseOrderLine is one line item on a purchase order.
type PurchaseOrderLine struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	PartID         *int64 `json:"part_id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Position       int    `json:"position"`
}

// Task is a follow-up task created by the agent.
type Task struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	DueDate   *time.Time `json:"due_date"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}
