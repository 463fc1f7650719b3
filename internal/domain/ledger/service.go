package ledger

import (
	"context"
	"fmt"
	"time"

	"vestry/internal/core/apperror"
	appctx "vestry/internal/core/context"
	"vestry/internal/core/id"
	"vestry/pkg/logger"
)

// Service provides business operations for the movement register.
type Service struct {
	repo Repository
}

// NewService creates a new register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append validates and persists one movement row.
// The row is stamped with a fresh id, creation time, and the acting user
// before insert. Returns the assigned id.
func (s *Service) Append(ctx context.Context, m *StockMovement) (id.ID, error) {
	if err := s.validate(m); err != nil {
		return id.Nil(), err
	}
	s.stamp(ctx, m)

	if err := s.repo.Append(ctx, m); err != nil {
		return id.Nil(), fmt.Errorf("append movement: %w", err)
	}

	logger.Info(ctx, "movement appended",
		"movement_id", m.ID,
		"type", m.Type,
		"product_id", m.ProductID,
		"warehouse_id", m.WarehouseID,
	)
	return m.ID, nil
}

// AppendTransferPair persists both legs of a warehouse transfer atomically.
// Either both rows commit or neither does; there is no API for writing a
// single transfer leg.
func (s *Service) AppendTransferPair(ctx context.Context, outbound, inbound *StockMovement) error {
	if err := s.validate(outbound); err != nil {
		return err
	}
	if err := s.validate(inbound); err != nil {
		return err
	}
	if err := s.validatePair(outbound, inbound); err != nil {
		return err
	}

	s.stamp(ctx, outbound)
	s.stamp(ctx, inbound)

	if err := s.repo.AppendPair(ctx, outbound, inbound); err != nil {
		return fmt.Errorf("append transfer pair: %w", err)
	}

	logger.Info(ctx, "transfer pair appended",
		"outbound_id", outbound.ID,
		"inbound_id", inbound.ID,
		"product_id", outbound.ProductID,
		"from_warehouse", outbound.WarehouseID,
		"to_warehouse", inbound.WarehouseID,
	)
	return nil
}

// List returns movement history for a scope, newest first.
func (s *Service) List(ctx context.Context, scope Scope, filter Filter) ([]StockMovement, error) {
	if id.IsNil(scope.ParishID) {
		return nil, apperror.NewValidation("parish is required")
	}
	return s.repo.ListByScope(ctx, scope, filter)
}

func (s *Service) validate(m *StockMovement) error {
	if m == nil {
		return apperror.NewValidation("movement is required")
	}
	if id.IsNil(m.ParishID) {
		return apperror.NewValidation("parish is required")
	}
	if id.IsNil(m.WarehouseID) {
		return apperror.NewValidation("warehouse is required")
	}
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("product is required")
	}
	if !m.Type.Valid() {
		return apperror.NewValidation(fmt.Sprintf("unknown movement type %q", m.Type))
	}

	// Adjustments carry their own sign but must move something; every other
	// type must be strictly positive.
	if m.Type == TypeAdjustment {
		if m.Quantity.IsZero() {
			return apperror.NewValidation("adjustment quantity must be non-zero")
		}
	} else if !m.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", m.Quantity.String())
	}

	switch m.Type {
	case TypeTransfer:
		switch m.Leg {
		case LegOutbound:
			if m.DestinationWarehouseID == nil || id.IsNil(*m.DestinationWarehouseID) {
				return apperror.NewValidation("outbound transfer requires a destination warehouse")
			}
			if *m.DestinationWarehouseID == m.WarehouseID {
				return apperror.NewValidation("transfer destination must differ from source warehouse")
			}
		case LegInbound:
			if m.DestinationWarehouseID != nil {
				return apperror.NewValidation("inbound transfer leg must not carry a destination warehouse")
			}
		default:
			return apperror.NewValidation("transfer movement requires a leg tag")
		}
	default:
		if m.Leg != LegNone {
			return apperror.NewValidation(fmt.Sprintf("movement type %q must not carry a transfer leg", m.Type))
		}
	}

	if m.UnitCost != nil && m.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative")
	}

	return nil
}

// validatePair checks the two legs describe the same transfer.
func (s *Service) validatePair(outbound, inbound *StockMovement) error {
	if outbound.Type != TypeTransfer || inbound.Type != TypeTransfer {
		return apperror.NewValidation("transfer pair rows must both be transfers")
	}
	if outbound.Leg != LegOutbound {
		return apperror.NewValidation("first row of a transfer pair must be the outbound leg")
	}
	if inbound.Leg != LegInbound {
		return apperror.NewValidation("second row of a transfer pair must be the inbound leg")
	}
	if outbound.ParishID != inbound.ParishID {
		return apperror.NewValidation("transfer legs must belong to the same parish")
	}
	if outbound.ProductID != inbound.ProductID {
		return apperror.NewValidation("transfer legs must reference the same product")
	}
	if !outbound.Quantity.Equal(inbound.Quantity) {
		return apperror.NewValidation("transfer legs must carry the same quantity")
	}
	if outbound.DestinationWarehouseID == nil || *outbound.DestinationWarehouseID != inbound.WarehouseID {
		return apperror.NewValidation("outbound destination must match the inbound warehouse")
	}
	return nil
}

// stamp fills server-assigned fields, deriving total value from the unit
// cost when the caller supplied a cost but no explicit total.
func (s *Service) stamp(ctx context.Context, m *StockMovement) {
	m.ID = id.New()
	if m.MovementDate.IsZero() {
		m.MovementDate = time.Now().UTC()
	}
	m.CreatedAt = time.Now().UTC()
	if m.CreatedBy == "" {
		m.CreatedBy = appctx.GetActorID(ctx)
	}
	if m.TotalValue == nil && m.UnitCost != nil {
		total := m.Quantity.Mul(*m.UnitCost)
		m.TotalValue = &total
	}
}
