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

const fixedAssetsTable = "cat_fixed_assets"

// FixedAssetRepo implements masterdata.FixedAssetRepository.
type FixedAssetRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewFixedAssetRepo creates the fixed asset repository.
func NewFixedAssetRepo(txManager *postgres.TxManager) *FixedAssetRepo {
	return &FixedAssetRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ masterdata.FixedAssetRepository = (*FixedAssetRepo)(nil)

// ListActive returns the parish's active assets ordered by inventory number.
// Disposed assets stay in the table for the record but never appear here.
func (r *FixedAssetRepo) ListActive(ctx context.Context, parishID id.ID) ([]masterdata.FixedAsset, error) {
	q := r.builder.Select(
		"id", "parish_id", "inventory_number", "name", "category",
		"acquisition_value", "current_value", "status", "location", "acquired_at",
	).From(fixedAssetsTable).
		Where(squirrel.Eq{
			"parish_id": parishID,
			"status":    masterdata.AssetActive,
		}).
		OrderBy("inventory_number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var assets []masterdata.FixedAsset
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &assets, sql, args...); err != nil {
		return nil, fmt.Errorf("select fixed assets: %w", err)
	}
	return assets, nil
}
