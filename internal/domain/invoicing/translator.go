package invoicing

import (
	"context"
	"fmt"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/domain/ledger"
	"vestry/pkg/logger"
)

// Translator derives stock movements from a committed invoice.
//
// Issued invoices move goods out; received invoices move goods in. Only
// lines that reference a catalog product and resolve to a warehouse produce
// movements; free-text lines are invoiced without touching the register.
type Translator struct {
	movements *ledger.Service
}

// NewTranslator creates a translator writing through the register service.
func NewTranslator(movements *ledger.Service) *Translator {
	return &Translator{movements: movements}
}

// Translate appends one movement per eligible line item. It is called
// exactly once, after the invoice row is committed, and never again on
// later edits.
//
// Failures are wrapped as a dependency failure for the caller to log; the
// invoice itself is already persisted and stays valid.
func (t *Translator) Translate(ctx context.Context, inv *Invoice) error {
	movementType := ledger.TypeOut
	if inv.Type == TypeReceived {
		movementType = ledger.TypeIn
	}

	appended := 0
	skipped := 0
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.ProductID == nil || id.IsNil(*item.ProductID) {
			skipped++
			continue
		}
		warehouse := inv.ItemWarehouse(item)
		if warehouse == nil || id.IsNil(*warehouse) {
			skipped++
			continue
		}

		m := &ledger.StockMovement{
			ParishID:         inv.ParishID,
			WarehouseID:      *warehouse,
			ProductID:        *item.ProductID,
			Type:             movementType,
			Quantity:         item.Quantity,
			MovementDate:     inv.IssueDate,
			Notes:            fmt.Sprintf("invoice %s", inv.InvoiceNumber),
			SourceDocumentID: &inv.ID,
			CreatedBy:        inv.CreatedBy,
		}
		if item.UnitCost != nil {
			m.UnitCost = item.UnitCost
		} else {
			total := item.Total
			m.TotalValue = &total
		}

		if _, err := t.movements.Append(ctx, m); err != nil {
			return apperror.NewDependencyFailure("invoice-to-ledger", err).
				WithDetail("invoice_id", inv.ID.String()).
				WithDetail("line", i)
		}
		appended++
	}

	logger.Info(ctx, "invoice translated to movements",
		"invoice_id", inv.ID,
		"movements", appended,
		"skipped_lines", skipped,
	)
	return nil
}
