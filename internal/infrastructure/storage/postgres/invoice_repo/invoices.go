// Package invoice_repo provides the PostgreSQL implementation of the
// invoice repository, including the numbering store.
package invoice_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"vestry/internal/core/id"
	"vestry/internal/domain/invoicing"
	"vestry/internal/infrastructure/storage/postgres"
	"vestry/pkg/numerator"
)

const (
	invoicesTable     = "doc_invoices"
	invoiceItemsTable = "doc_invoice_items"
)

// InvoiceRepo implements invoicing.Repository.
type InvoiceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewInvoiceRepo creates the invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ invoicing.Repository = (*InvoiceRepo)(nil)

// scopeConditions translates a numbering scope into WHERE clauses.
// A nil warehouse matches only NULL warehouse rows.
func scopeConditions(scope numerator.Scope) squirrel.And {
	conds := squirrel.And{
		squirrel.Eq{"parish_id": scope.ParishID},
		squirrel.Eq{"series": scope.Series},
		squirrel.Eq{"invoice_type": scope.DocumentType},
	}
	if scope.WarehouseID != nil {
		conds = append(conds, squirrel.Eq{"warehouse_id": *scope.WarehouseID})
	} else {
		conds = append(conds, squirrel.Eq{"warehouse_id": nil})
	}
	return conds
}

// MaxNumber returns the highest number in a numbering scope.
func (r *InvoiceRepo) MaxNumber(ctx context.Context, scope numerator.Scope) (int64, bool, error) {
	q := r.builder.Select("MAX(number)").
		From(invoicesTable).
		Where(scopeConditions(scope))

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build query: %w", err)
	}

	var max *int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&max); err != nil {
		return 0, false, fmt.Errorf("max number: %w", err)
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

// NumberExists reports whether a number is taken in a scope. Inside a write
// transaction this is the authoritative pre-insert check.
func (r *InvoiceRepo) NumberExists(ctx context.Context, scope numerator.Scope, number int64) (bool, error) {
	conds := scopeConditions(scope)
	conds = append(conds, squirrel.Eq{"number": number})

	q := r.builder.Select("1").
		From(invoicesTable).
		Where(conds).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("number exists: %w", err)
	}
	return true, nil
}

// Create inserts the invoice with its items. Callers wrap it in a
// transaction together with the number re-check.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoicing.Invoice) error {
	q := r.builder.Insert(invoicesTable).
		Columns(
			"id", "parish_id", "invoice_type", "series", "number", "invoice_number",
			"counterparty_id", "warehouse_id", "issue_date", "status", "notes",
			"created_by", "created_at", "updated_at",
		).
		Values(
			inv.ID, inv.ParishID, inv.Type, inv.Series, inv.Number, inv.InvoiceNumber,
			inv.CounterpartyID, inv.WarehouseID, inv.IssueDate, inv.Status, inv.Notes,
			inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build invoice insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	if len(inv.Items) == 0 {
		return nil
	}

	itemsQ := r.builder.Insert(invoiceItemsTable).Columns(
		"id", "invoice_id", "description", "quantity", "unit_price",
		"vat_rate", "total", "product_id", "warehouse_id", "unit_cost",
	)
	for _, item := range inv.Items {
		itemsQ = itemsQ.Values(
			item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice,
			item.VATRate, item.Total, item.ProductID, item.WarehouseID, item.UnitCost,
		)
	}

	sql, args, err = itemsQ.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice items: %w", err)
	}
	return nil
}

// GetByID returns one invoice with its items, or nil when absent.
func (r *InvoiceRepo) GetByID(ctx context.Context, parishID, invoiceID id.ID) (*invoicing.Invoice, error) {
	q := r.builder.Select(
		"id", "parish_id", "invoice_type", "series", "number", "invoice_number",
		"counterparty_id", "warehouse_id", "issue_date", "status", "notes",
		"created_by", "created_at", "updated_at",
	).From(invoicesTable).
		Where(squirrel.Eq{"id": invoiceID, "parish_id": parishID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv invoicing.Invoice
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	items, err := r.loadItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

// List returns invoices of a parish, newest first.
func (r *InvoiceRepo) List(ctx context.Context, parishID id.ID, filter invoicing.ListFilter) ([]invoicing.Invoice, error) {
	q := r.builder.Select(
		"id", "parish_id", "invoice_type", "series", "number", "invoice_number",
		"counterparty_id", "warehouse_id", "issue_date", "status", "notes",
		"created_by", "created_at", "updated_at",
	).From(invoicesTable).
		Where(squirrel.Eq{"parish_id": parishID})

	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"invoice_type": filter.Type})
	}
	if filter.Series != "" {
		q = q.Where(squirrel.Eq{"series": filter.Series})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"issue_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"issue_date": *filter.DateTo})
	}

	q = q.OrderBy("issue_date DESC", "number DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var invoices []invoicing.Invoice
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &invoices, sql, args...); err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	return invoices, nil
}

func (r *InvoiceRepo) loadItems(ctx context.Context, invoiceID id.ID) ([]invoicing.InvoiceItem, error) {
	q := r.builder.Select(
		"id", "invoice_id", "description", "quantity", "unit_price",
		"vat_rate", "total", "product_id", "warehouse_id", "unit_cost",
	).From(invoiceItemsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []invoicing.InvoiceItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	return items, nil
}
