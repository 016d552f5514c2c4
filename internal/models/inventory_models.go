package models

import "time"

// InventoryItem is a unit of stock owned by a single user. The Notes column
// carries the versioned metadata envelope (see internal/metadata); the
// CostPence field is the legacy per-unit purchase cost kept for items created
// before the envelope carried purchaseTotalPence.
type InventoryItem struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	SKU       *string   `json:"sku,omitempty" db:"sku"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CostPence int64     `json:"cost_pence" db:"cost_pence"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
