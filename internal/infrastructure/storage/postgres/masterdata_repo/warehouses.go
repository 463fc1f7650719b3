package masterdata_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/domain/masterdata"
	"vestry/internal/infrastructure/storage/postgres"
)

const warehousesTable = "cat_warehouses"

// WarehouseRepo implements masterdata.WarehouseRepository.
type WarehouseRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewWarehouseRepo creates the warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ masterdata.WarehouseRepository = (*WarehouseRepo)(nil)

// GetByID returns one warehouse or a not found error.
func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*masterdata.Warehouse, error) {
	q := r.builder.Select("id", "parish_id", "code", "name").
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var wh masterdata.Warehouse
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &wh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", warehouseID.String())
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &wh, nil
}

// ListByParish returns all warehouses of a parish ordered by code.
func (r *WarehouseRepo) ListByParish(ctx context.Context, parishID id.ID) ([]masterdata.Warehouse, error) {
	q := r.builder.Select("id", "parish_id", "code", "name").
		From(warehousesTable).
		Where(squirrel.Eq{"parish_id": parishID}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var warehouses []masterdata.Warehouse
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouses: %w", err)
	}
	return warehouses, nil
}
