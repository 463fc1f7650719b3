package valuation

import (
	"context"
	"fmt"
	"sort"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/core/tx"
	"vestry/internal/core/types"
	"vestry/internal/domain/ledger"
	"vestry/internal/domain/masterdata"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service folds the movement register into stock and inventory projections.
type Service struct {
	movements  ledger.Repository
	products   masterdata.ProductRepository
	warehouses masterdata.WarehouseRepository
	assets     masterdata.FixedAssetRepository
	ro         tx.ReadOnlyManager
}

// NewService creates a valuation service. Projections run inside read-only
// transactions so the tables they join reflect one snapshot.
func NewService(
	movements ledger.Repository,
	products masterdata.ProductRepository,
	warehouses masterdata.WarehouseRepository,
	assets masterdata.FixedAssetRepository,
	ro tx.ReadOnlyManager,
) *Service {
	return &Service{
		movements:  movements,
		products:   products,
		warehouses: warehouses,
		assets:     assets,
		ro:         ro,
	}
}

// groupKey identifies one folded position.
type groupKey struct {
	warehouseID id.ID
	productID   id.ID
}

type group struct {
	quantity types.Quantity
	value    types.Money
}

// ComputeStockLevels folds the full movement history of the scope into
// per-(warehouse, product) balances.
//
// Groups whose folded quantity is not positive are dropped, as are groups
// whose product is unknown or not stock-tracked; all three cases increment
// FilteredOutCount. The fold is idempotent: recomputing over the same rows
// yields the same summary.
func (s *Service) ComputeStockLevels(ctx context.Context, scope Scope) (*StockSummary, error) {
	if id.IsNil(scope.ParishID) {
		return nil, apperror.NewValidation("parish is required")
	}
	var summary *StockSummary
	err := s.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.stockLevels(ctx, scope)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Service) stockLevels(ctx context.Context, scope Scope) (*StockSummary, error) {
	if scope.WarehouseID != nil {
		if err := s.checkWarehouseInParish(ctx, scope); err != nil {
			return nil, err
		}
	}

	rows, err := s.movements.ListByScope(ctx, ledger.Scope{
		ParishID:    scope.ParishID,
		WarehouseID: scope.WarehouseID,
	}, ledger.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	groups := make(map[groupKey]*group)
	var order []groupKey
	for i := range rows {
		m := &rows[i]
		key := groupKey{warehouseID: m.WarehouseID, productID: m.ProductID}
		g, ok := groups[key]
		if !ok {
			g = &group{quantity: types.Zero(), value: types.Zero()}
			groups[key] = g
			order = append(order, key)
		}
		g.quantity = g.quantity.Add(m.QuantityDelta())
		g.value = g.value.Add(m.ValueDelta())
	}

	productIDs := make([]id.ID, 0, len(order))
	seen := make(map[id.ID]bool)
	for _, key := range order {
		if !seen[key.productID] {
			seen[key.productID] = true
			productIDs = append(productIDs, key.productID)
		}
	}

	products := map[id.ID]masterdata.Product{}
	if len(productIDs) > 0 {
		products, err = s.products.GetByIDs(ctx, productIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve products: %w", err)
		}
	}

	summary := &StockSummary{Levels: []StockLevel{}}
	for _, key := range order {
		g := groups[key]
		if !g.quantity.IsPositive() {
			summary.FilteredOutCount++
			continue
		}
		product, ok := products[key.productID]
		if !ok || !product.TrackStock {
			summary.FilteredOutCount++
			continue
		}
		summary.Levels = append(summary.Levels, StockLevel{
			WarehouseID: key.warehouseID,
			ProductID:   key.productID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Unit:        product.Unit,
			Category:    product.Category,
			Quantity:    g.quantity,
			TotalValue:  g.value,
		})
	}

	sort.Slice(summary.Levels, func(i, j int) bool {
		a, b := summary.Levels[i], summary.Levels[j]
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.WarehouseID.String() < b.WarehouseID.String()
	})

	return summary, nil
}

// ComputeBookInventory unions stock levels with active fixed assets into one
// paginated listing. The full union is materialized first; pagination is a
// plain slice of the sorted result.
func (s *Service) ComputeBookInventory(ctx context.Context, scope Scope, query Query) (*BookInventory, error) {
	if id.IsNil(scope.ParishID) {
		return nil, apperror.NewValidation("parish is required")
	}
	var result *BookInventory
	err := s.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.bookInventory(ctx, scope, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) bookInventory(ctx context.Context, scope Scope, query Query) (*BookInventory, error) {
	stock, err := s.stockLevels(ctx, scope)
	if err != nil {
		return nil, err
	}

	warehouseRefs, err := s.warehouseRefs(ctx, scope.ParishID)
	if err != nil {
		return nil, err
	}

	var items []BookInventoryItem
	if query.Type == "" || query.Type == ItemProduct {
		for _, lvl := range stock.Levels {
			item := BookInventoryItem{
				Type:     ItemProduct,
				ID:       fmt.Sprintf("product-%s-%s", lvl.ProductID, lvl.WarehouseID),
				ItemID:   lvl.ProductID,
				Code:     lvl.ProductCode,
				Name:     lvl.ProductName,
				Category: lvl.Category,
				Unit:     lvl.Unit,
				Quantity: lvl.Quantity,
				Value:    lvl.TotalValue,
			}
			if ref, ok := warehouseRefs[lvl.WarehouseID]; ok {
				item.Warehouse = &ref
			}
			items = append(items, item)
		}
	}

	assetCount := 0
	if query.Type == "" || query.Type == ItemFixedAsset {
		// Fixed assets are parish-wide: a warehouse-scoped view still lists
		// them, since assets live at locations, not warehouses.
		assets, err := s.assets.ListActive(ctx, scope.ParishID)
		if err != nil {
			return nil, fmt.Errorf("list fixed assets: %w", err)
		}
		assetCount = len(assets)
		for _, a := range assets {
			items = append(items, BookInventoryItem{
				Type:     ItemFixedAsset,
				ID:       fmt.Sprintf("fixed_asset-%s", a.ID),
				ItemID:   a.ID,
				Code:     a.InventoryNumber,
				Name:     a.Name,
				Category: a.Category,
				Quantity: types.MustMoney("1"),
				Value:    a.BookValue(),
				Location: a.Location,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == ItemProduct
		}
		return items[i].Name < items[j].Name
	})

	page, size := normalizePage(query.Page, query.PageSize)
	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return &BookInventory{
		Items:    items[start:end],
		Total:    total,
		Page:     page,
		PageSize: size,
		Metadata: Metadata{
			ProductCount:     len(stock.Levels),
			FixedAssetCount:  assetCount,
			FilteredOutCount: stock.FilteredOutCount,
		},
	}, nil
}

func (s *Service) checkWarehouseInParish(ctx context.Context, scope Scope) error {
	wh, err := s.warehouses.GetByID(ctx, *scope.WarehouseID)
	if err != nil {
		return fmt.Errorf("resolve warehouse: %w", err)
	}
	if wh == nil || wh.ParishID != scope.ParishID {
		return apperror.NewNotFound("warehouse", scope.WarehouseID.String())
	}
	return nil
}

func (s *Service) warehouseRefs(ctx context.Context, parishID id.ID) (map[id.ID]WarehouseRef, error) {
	list, err := s.warehouses.ListByParish(ctx, parishID)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	refs := make(map[id.ID]WarehouseRef, len(list))
	for _, w := range list {
		refs[w.ID] = WarehouseRef{ID: w.ID, Code: w.Code, Name: w.Name}
	}
	return refs, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
