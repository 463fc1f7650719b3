package invoicing

import (
	"context"
	"time"

	"vestry/internal/core/id"
	"vestry/pkg/numerator"
)

// ListFilter narrows invoice listings. Zero values mean "no filter".
type ListFilter struct {
	Type     InvoiceType
	Series   string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// Repository persists invoices with their items. It doubles as the
// numerator.Store so the final number uniqueness check runs against the same
// rows, inside the same transaction, as the invoice insert.
type Repository interface {
	numerator.Store

	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, parishID, invoiceID id.ID) (*Invoice, error)
	List(ctx context.Context, parishID id.ID, filter ListFilter) ([]Invoice, error)
}
