// Package valuation projects the movement register into current stock
// levels and the parish book inventory.
//
// Projections are stateless: every call re-folds the full movement history,
// so the register remains the single source of truth.
package valuation

import (
	"vestry/internal/core/id"
	"vestry/internal/core/types"
)

// Scope bounds a projection to a parish, optionally to one warehouse.
type Scope struct {
	ParishID    id.ID
	WarehouseID *id.ID
}

// StockLevel is the folded position of one product at one warehouse.
type StockLevel struct {
	WarehouseID id.ID          `json:"warehouseId"`
	ProductID   id.ID          `json:"productId"`
	ProductCode string         `json:"productCode"`
	ProductName string         `json:"productName"`
	Unit        string         `json:"unit"`
	Category    string         `json:"category,omitempty"`
	Quantity    types.Quantity `json:"quantity"`
	TotalValue  types.Money    `json:"totalValue"`
}

// StockSummary is the result of a stock level projection.
type StockSummary struct {
	Levels []StockLevel `json:"levels"`

	// FilteredOutCount counts folded groups dropped from the result:
	// non-positive balances, unknown products, and products that are not
	// stock-tracked.
	FilteredOutCount int `json:"filteredOutCount"`
}

// ItemType discriminates book inventory entries.
type ItemType string

const (
	ItemProduct    ItemType = "product"
	ItemFixedAsset ItemType = "fixed_asset"
)

// WarehouseRef is the warehouse summary embedded in inventory items.
// Fixed assets have no warehouse and carry a free-text location instead.
type WarehouseRef struct {
	ID   id.ID  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// BookInventoryItem is one line of the unified book inventory.
type BookInventoryItem struct {
	Type ItemType `json:"type"`
	// ID identifies the view row. A product stocked in two warehouses yields
	// two rows sharing an ItemID, so the row id folds the warehouse in.
	ID       string         `json:"id"`
	ItemID   id.ID          `json:"itemId"`
	Code     string         `json:"code"`
	Name     string         `json:"name"`
	Category string         `json:"category,omitempty"`
	Unit     string         `json:"unit,omitempty"`
	Quantity types.Quantity `json:"quantity"`
	Value    types.Money    `json:"value"`

	Warehouse *WarehouseRef `json:"warehouse,omitempty"`
	Location  string        `json:"location,omitempty"`
}

// Metadata summarizes a book inventory projection before pagination.
type Metadata struct {
	ProductCount     int `json:"productCount"`
	FixedAssetCount  int `json:"fixedAssetCount"`
	FilteredOutCount int `json:"filteredOutCount"`
}

// Query controls filtering and pagination of the book inventory.
// Pagination applies after the full union is materialized, so page numbers
// are stable across the product/asset boundary.
type Query struct {
	Type     ItemType // empty means both kinds
	Page     int
	PageSize int
}

// BookInventory is a page of the unified inventory with its metadata.
type BookInventory struct {
	Items    []BookInventoryItem `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
	Metadata Metadata            `json:"metadata"`
}
