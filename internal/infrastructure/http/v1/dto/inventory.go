package dto

// StockLevelsQuery scopes the stock level projection.
type StockLevelsQuery struct {
	WarehouseID string `form:"warehouseId"`
}

// BookInventoryQuery scopes and paginates the book inventory.
type BookInventoryQuery struct {
	WarehouseID string `form:"warehouseId"`
	Type        string `form:"type"` // product | fixed_asset | empty for both
	PaginationRequest
}
