package models

import "time"

// SaleRecord captures a completed sale. Item name and SKU are denormalized at
// sale time so the record survives deletion of the originating inventory
// item. Records are append-only: created atomically with the sale action and
// never updated in place.
type SaleRecord struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	InventoryItemID  *string   `json:"inventory_item_id,omitempty" db:"inventory_item_id"`
	ItemName         string    `json:"item_name" db:"item_name"`
	SKU              *string   `json:"sku,omitempty" db:"sku"`
	Platform         string    `json:"platform" db:"platform"`
	Currency         string    `json:"currency" db:"currency"`
	SoldAt           time.Time `json:"sold_at" db:"sold_at"`
	QuantitySold     int       `json:"quantity_sold" db:"quantity_sold"`
	SalePricePence   int64     `json:"sale_price_pence" db:"sale_price_pence"` // per unit
	FeesPence        int64     `json:"fees_pence" db:"fees_pence"`
	NetPence         int64     `json:"net_pence" db:"net_pence"`
	CostPerUnitPence *int64    `json:"cost_per_unit_pence,omitempty" db:"cost_per_unit_pence"`
	CostTotalPence   *int64    `json:"cost_total_pence,omitempty" db:"cost_total_pence"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// SaleFilters narrows sale listings and bulk deletions. Both bounds are
// inclusive; when IDs and a date range are given together the intersection
// applies.
type SaleFilters struct {
	Platform *string
	From     *time.Time
	To       *time.Time
}
