// Package ledger_repo provides the PostgreSQL implementation of the
// movement register repository.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"vestry/internal/domain/ledger"
	"vestry/internal/infrastructure/storage/postgres"
)

const movementsTable = "reg_stock_movements"

var movementColumns = []string{
	"id", "parish_id", "warehouse_id", "destination_warehouse_id",
	"product_id", "movement_type", "transfer_leg",
	"quantity", "unit_cost", "total_value",
	"movement_date", "notes", "source_document_id",
	"created_by", "created_at",
}

// MovementRepo implements ledger.Repository. The table has no UPDATE or
// DELETE path in this codebase; only inserts and reads.
type MovementRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewMovementRepo creates the movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*MovementRepo)(nil)

func movementValues(m *ledger.StockMovement) []any {
	return []any{
		m.ID, m.ParishID, m.WarehouseID, m.DestinationWarehouseID,
		m.ProductID, m.Type, m.Leg,
		m.Quantity, m.UnitCost, m.TotalValue,
		m.MovementDate, m.Notes, m.SourceDocumentID,
		m.CreatedBy, m.CreatedAt,
	}
}

// Append inserts one movement row.
func (r *MovementRepo) Append(ctx context.Context, m *ledger.StockMovement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(movementValues(m)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// AppendPair inserts both transfer legs in one transaction using the COPY
// protocol, so a failure on either row leaves neither behind.
func (r *MovementRepo) AppendPair(ctx context.Context, outbound, inbound *ledger.StockMovement) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := [][]any{movementValues(outbound), movementValues(inbound)}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy transfer pair: %w", err)
		}
		return nil
	})
}

// ListByScope returns movements of a parish, optionally narrowed to one
// warehouse, with listing filters applied. Newest first.
func (r *MovementRepo) ListByScope(ctx context.Context, scope ledger.Scope, filter ledger.Filter) ([]ledger.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"parish_id": scope.ParishID})

	if scope.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *scope.WarehouseID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"movement_type": filter.Type})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"movement_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"movement_date": *filter.DateTo})
	}

	q = q.OrderBy("movement_date DESC", "created_at DESC")
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

	var movements []ledger.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}
