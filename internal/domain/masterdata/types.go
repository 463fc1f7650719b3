// Package masterdata holds the reference entities the ledger and valuation
// layers resolve against: products, warehouses, and fixed assets.
package masterdata

import (
	"context"
	"time"

	"vestry/internal/core/id"
	"vestry/internal/core/types"
)

// Product is a catalog item that may or may not be stock-tracked.
type Product struct {
	ID         id.ID  `db:"id" json:"id"`
	ParishID   id.ID  `db:"parish_id" json:"parishId"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	Unit       string `db:"unit" json:"unit"`
	Category   string `db:"category" json:"category"`
	TrackStock bool   `db:"track_stock" json:"trackStock"`
}

// Warehouse is a physical or logical storage location within a parish.
type Warehouse struct {
	ID       id.ID  `db:"id" json:"id"`
	ParishID id.ID  `db:"parish_id" json:"parishId"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
}

// FixedAssetStatus is the lifecycle state of a fixed asset.
type FixedAssetStatus string

const (
	AssetActive   FixedAssetStatus = "active"
	AssetDisposed FixedAssetStatus = "disposed"
)

// FixedAsset is a registered asset (furniture, instruments, vestments)
// carried on the book inventory alongside tracked stock.
type FixedAsset struct {
	ID               id.ID            `db:"id" json:"id"`
	ParishID         id.ID            `db:"parish_id" json:"parishId"`
	InventoryNumber  string           `db:"inventory_number" json:"inventoryNumber"`
	Name             string           `db:"name" json:"name"`
	Category         string           `db:"category" json:"category"`
	AcquisitionValue *types.Money     `db:"acquisition_value" json:"acquisitionValue,omitempty"`
	CurrentValue     *types.Money     `db:"current_value" json:"currentValue,omitempty"`
	Status           FixedAssetStatus `db:"status" json:"status"`
	Location         string           `db:"location" json:"location,omitempty"`
	AcquiredAt       *time.Time       `db:"acquired_at" json:"acquiredAt,omitempty"`
}

// BookValue resolves the asset's carrying value:
// current value when appraised, else acquisition value, else zero.
func (a *FixedAsset) BookValue() types.Money {
	if a.CurrentValue != nil {
		return *a.CurrentValue
	}
	if a.AcquisitionValue != nil {
		return *a.AcquisitionValue
	}
	return types.Zero()
}

// ProductRepository resolves products in bulk for valuation enrichment.
type ProductRepository interface {
	// GetByIDs returns the found products keyed by id; missing ids are
	// simply absent from the map.
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]Product, error)
}

// WarehouseRepository resolves warehouses for scoping and enrichment.
type WarehouseRepository interface {
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	ListByParish(ctx context.Context, parishID id.ID) ([]Warehouse, error)
}

// FixedAssetRepository lists assets for the book inventory.
type FixedAssetRepository interface {
	ListActive(ctx context.Context, parishID id.ID) ([]FixedAsset, error)
}
