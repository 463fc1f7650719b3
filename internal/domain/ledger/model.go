// Package ledger provides the append-only stock movement register.
//
// Movement rows are the source of truth for inventory: they are never
// updated or deleted after insert. Corrections are new adjustment rows.
package ledger

import (
	"time"

	"vestry/internal/core/id"
	"vestry/internal/core/types"
)

// MovementType classifies a stock movement row.
type MovementType string

const (
	TypeIn         MovementType = "in"
	TypeOut        MovementType = "out"
	TypeTransfer   MovementType = "transfer"
	TypeAdjustment MovementType = "adjustment"
	TypeReturn     MovementType = "return"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case TypeIn, TypeOut, TypeTransfer, TypeAdjustment, TypeReturn:
		return true
	}
	return false
}

// TransferLeg tags which side of a transfer a row represents.
// Non-transfer rows carry LegNone. The destination warehouse id is still
// stored on the outbound leg for the audit trail, but the leg tag, not the
// presence of a destination, is the discriminant.
type TransferLeg string

const (
	LegNone     TransferLeg = ""
	LegOutbound TransferLeg = "outbound"
	LegInbound  TransferLeg = "inbound"
)

// StockMovement is one immutable row in the movement register.
type StockMovement struct {
	ID       id.ID `db:"id" json:"id"`
	ParishID id.ID `db:"parish_id" json:"parishId"`

	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	// DestinationWarehouseID is set on the outbound leg of a transfer only.
	DestinationWarehouseID *id.ID `db:"destination_warehouse_id" json:"destinationWarehouseId,omitempty"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Type MovementType `db:"movement_type" json:"type"`
	Leg  TransferLeg  `db:"transfer_leg" json:"leg,omitempty"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	// UnitCost and TotalValue are optional; rows without a value contribute
	// zero to folded valuations.
	UnitCost   *types.Money `db:"unit_cost" json:"unitCost,omitempty"`
	TotalValue *types.Money `db:"total_value" json:"totalValue,omitempty"`

	MovementDate time.Time `db:"movement_date" json:"movementDate"`
	Notes        string    `db:"notes" json:"notes,omitempty"`

	// SourceDocumentID links a movement derived from a document (e.g. an
	// invoice) back to its source. Manual movements leave it nil.
	SourceDocumentID *id.ID `db:"source_document_id" json:"sourceDocumentId,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// inbound reports whether the row increases stock at its warehouse.
func (m *StockMovement) inbound() bool {
	switch m.Type {
	case TypeIn, TypeReturn, TypeAdjustment:
		return true
	case TypeTransfer:
		return m.Leg == LegInbound
	}
	return false
}

// QuantityDelta returns the signed quantity contribution of this row to the
// balance of (WarehouseID, ProductID). Adjustments carry their own sign.
func (m *StockMovement) QuantityDelta() types.Quantity {
	if m.Type == TypeAdjustment {
		return m.Quantity
	}
	if m.inbound() {
		return m.Quantity
	}
	return m.Quantity.Neg()
}

// ValueDelta returns the signed value contribution of this row.
// Rows without a total value contribute zero.
func (m *StockMovement) ValueDelta() types.Money {
	if m.TotalValue == nil {
		return types.Zero()
	}
	if m.Type == TypeAdjustment {
		return *m.TotalValue
	}
	if m.inbound() {
		return *m.TotalValue
	}
	return m.TotalValue.Neg()
}
