// Package masterdata_repo provides PostgreSQL implementations for the
// reference data repositories.
package masterdata_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"vestry/internal/core/id"
	"vestry/internal/domain/masterdata"
	"vestry/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// ProductRepo implements masterdata.ProductRepository.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates the product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ masterdata.ProductRepository = (*ProductRepo)(nil)

// GetByIDs resolves products in bulk; absent ids are simply missing from the
// returned map.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]masterdata.Product, error) {
	result := make(map[id.ID]masterdata.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	q := r.builder.Select(
		"id", "parish_id", "code", "name", "unit", "category", "track_stock",
	).From(productsTable).
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []masterdata.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}
