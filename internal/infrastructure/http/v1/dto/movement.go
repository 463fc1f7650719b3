package dto

import (
	"time"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/core/types"
	"vestry/internal/domain/ledger"
)

// CreateMovementRequest creates a single register row.
type CreateMovementRequest struct {
	WarehouseID  string       `json:"warehouseId" binding:"required"`
	ProductID    string       `json:"productId" binding:"required"`
	Type         string       `json:"type" binding:"required"`
	Quantity     types.Money  `json:"quantity"`
	UnitCost     *types.Money `json:"unitCost,omitempty"`
	TotalValue   *types.Money `json:"totalValue,omitempty"`
	MovementDate *time.Time   `json:"movementDate,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// ToMovement converts the request to a domain movement.
func (r *CreateMovementRequest) ToMovement(parishID id.ID) (*ledger.StockMovement, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id")
	}
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, apperror.NewValidation("invalid product id")
	}

	m := &ledger.StockMovement{
		ParishID:    parishID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Type:        ledger.MovementType(r.Type),
		Quantity:    r.Quantity,
		UnitCost:    r.UnitCost,
		TotalValue:  r.TotalValue,
		Notes:       r.Notes,
	}
	if r.MovementDate != nil {
		m.MovementDate = *r.MovementDate
	}
	return m, nil
}

// CreateTransferRequest moves stock between two warehouses. The server
// builds both legs; callers never write a single leg.
type CreateTransferRequest struct {
	ProductID       string       `json:"productId" binding:"required"`
	FromWarehouseID string       `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   string       `json:"toWarehouseId" binding:"required"`
	Quantity        types.Money  `json:"quantity"`
	UnitCost        *types.Money `json:"unitCost,omitempty"`
	MovementDate    *time.Time   `json:"movementDate,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

// ToPair converts the request into the outbound and inbound legs.
func (r *CreateTransferRequest) ToPair(parishID id.ID) (*ledger.StockMovement, *ledger.StockMovement, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, nil, apperror.NewValidation("invalid product id")
	}
	fromID, err := id.Parse(r.FromWarehouseID)
	if err != nil {
		return nil, nil, apperror.NewValidation("invalid source warehouse id")
	}
	toID, err := id.Parse(r.ToWarehouseID)
	if err != nil {
		return nil, nil, apperror.NewValidation("invalid destination warehouse id")
	}

	outbound := &ledger.StockMovement{
		ParishID:               parishID,
		WarehouseID:            fromID,
		DestinationWarehouseID: &toID,
		ProductID:              productID,
		Type:                   ledger.TypeTransfer,
		Leg:                    ledger.LegOutbound,
		Quantity:               r.Quantity,
		UnitCost:               r.UnitCost,
		Notes:                  r.Notes,
	}
	inbound := &ledger.StockMovement{
		ParishID:    parishID,
		WarehouseID: toID,
		ProductID:   productID,
		Type:        ledger.TypeTransfer,
		Leg:         ledger.LegInbound,
		Quantity:    r.Quantity,
		UnitCost:    r.UnitCost,
		Notes:       r.Notes,
	}
	if r.MovementDate != nil {
		outbound.MovementDate = *r.MovementDate
		inbound.MovementDate = *r.MovementDate
	}
	return outbound, inbound, nil
}

// TransferPairResponse returns the ids of both created legs.
type TransferPairResponse struct {
	OutboundID string `json:"outboundId"`
	InboundID  string `json:"inboundId"`
}

// ListMovementsQuery filters movement history.
type ListMovementsQuery struct {
	WarehouseID string     `form:"warehouseId"`
	ProductID   string     `form:"productId"`
	Type        string     `form:"type"`
	DateFrom    *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo      *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Limit       int        `form:"limit"`
	Offset      int        `form:"offset"`
}
