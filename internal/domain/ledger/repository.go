package ledger

import (
	"context"
	"time"

	"vestry/internal/core/id"
)

// Scope bounds a movement query to a parish, optionally to one warehouse.
type Scope struct {
	ParishID    id.ID
	WarehouseID *id.ID
}

// Filter narrows movement history listings. Zero values mean "no filter".
type Filter struct {
	ProductID *id.ID
	Type      MovementType
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// Repository is the persistence surface of the movement register.
// There is deliberately no update or delete: rows are immutable once
// written, and transfer pairs go through AppendPair so both legs commit or
// neither does.
type Repository interface {
	Append(ctx context.Context, m *StockMovement) error
	AppendPair(ctx context.Context, outbound, inbound *StockMovement) error
	ListByScope(ctx context.Context, scope Scope, filter Filter) ([]StockMovement, error)
}
