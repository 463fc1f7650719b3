package valuation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/core/types"
	"vestry/internal/domain/ledger"
	"vestry/internal/domain/masterdata"
)

var (
	parishID    = id.MustParse("018f4e2a-0000-7000-8000-0000000000aa")
	otherParish = id.MustParse("018f4e2a-0000-7000-8000-0000000000ab")
	warehouseA  = id.MustParse("018f4e2a-0000-7000-8000-0000000000a1")
	warehouseB  = id.MustParse("018f4e2a-0000-7000-8000-0000000000a2")
	candles     = id.MustParse("018f4e2a-0000-7000-8000-0000000000b1")
	wine        = id.MustParse("018f4e2a-0000-7000-8000-0000000000b2")
	services    = id.MustParse("018f4e2a-0000-7000-8000-0000000000b3")
)

type movementRepo struct {
	rows []ledger.StockMovement
}

func (r *movementRepo) Append(_ context.Context, m *ledger.StockMovement) error {
	r.rows = append(r.rows, *m)
	return nil
}

func (r *movementRepo) AppendPair(_ context.Context, out, in *ledger.StockMovement) error {
	r.rows = append(r.rows, *out, *in)
	return nil
}

func (r *movementRepo) ListByScope(_ context.Context, scope ledger.Scope, _ ledger.Filter) ([]ledger.StockMovement, error) {
	var res []ledger.StockMovement
	for _, m := range r.rows {
		if m.ParishID != scope.ParishID {
			continue
		}
		if scope.WarehouseID != nil && m.WarehouseID != *scope.WarehouseID {
			continue
		}
		res = append(res, m)
	}
	return res, nil
}

type productRepo struct {
	products map[id.ID]masterdata.Product
}

func (r *productRepo) GetByIDs(_ context.Context, ids []id.ID) (map[id.ID]masterdata.Product, error) {
	out := make(map[id.ID]masterdata.Product)
	for _, pid := range ids {
		if p, ok := r.products[pid]; ok {
			out[pid] = p
		}
	}
	return out, nil
}

type warehouseRepo struct {
	warehouses []masterdata.Warehouse
}

func (r *warehouseRepo) GetByID(_ context.Context, warehouseID id.ID) (*masterdata.Warehouse, error) {
	for i := range r.warehouses {
		if r.warehouses[i].ID == warehouseID {
			return &r.warehouses[i], nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", warehouseID.String())
}

func (r *warehouseRepo) ListByParish(_ context.Context, parish id.ID) ([]masterdata.Warehouse, error) {
	var res []masterdata.Warehouse
	for _, w := range r.warehouses {
		if w.ParishID == parish {
			res = append(res, w)
		}
	}
	return res, nil
}

type assetRepo struct {
	assets []masterdata.FixedAsset
}

func (r *assetRepo) ListActive(_ context.Context, parish id.ID) ([]masterdata.FixedAsset, error) {
	var res []masterdata.FixedAsset
	for _, a := range r.assets {
		if a.ParishID == parish && a.Status == masterdata.AssetActive {
			res = append(res, a)
		}
	}
	return res, nil
}

// passthroughTx runs closures without a real transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	movements *movementRepo
	products  *productRepo
	houses    *warehouseRepo
	assets    *assetRepo
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		movements: &movementRepo{},
		products: &productRepo{products: map[id.ID]masterdata.Product{
			candles:  {ID: candles, ParishID: parishID, Code: "CAN", Name: "Candles", Unit: "box", Category: "liturgical", TrackStock: true},
			wine:     {ID: wine, ParishID: parishID, Code: "WIN", Name: "Altar wine", Unit: "bottle", Category: "liturgical", TrackStock: true},
			services: {ID: services, ParishID: parishID, Code: "SRV", Name: "Cleaning service", Unit: "hour", TrackStock: false},
		}},
		houses: &warehouseRepo{warehouses: []masterdata.Warehouse{
			{ID: warehouseA, ParishID: parishID, Code: "MAIN", Name: "Sacristy"},
			{ID: warehouseB, ParishID: parishID, Code: "HALL", Name: "Parish hall"},
		}},
		assets: &assetRepo{},
	}
	f.svc = NewService(f.movements, f.products, f.houses, f.assets, passthroughTx{})
	return f
}

func (f *fixture) add(warehouse, product id.ID, typ ledger.MovementType, leg ledger.TransferLeg, qty, value string) {
	m := ledger.StockMovement{
		ID:          id.New(),
		ParishID:    parishID,
		WarehouseID: warehouse,
		ProductID:   product,
		Type:        typ,
		Leg:         leg,
		Quantity:    types.MustMoney(qty),
	}
	if value != "" {
		v := types.MustMoney(value)
		m.TotalValue = &v
	}
	f.movements.rows = append(f.movements.rows, m)
}

func TestComputeStockLevels_FoldsSignedContributions(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "10", "100")
	f.add(warehouseA, candles, ledger.TypeOut, ledger.LegNone, "3", "30")
	f.add(warehouseA, candles, ledger.TypeReturn, ledger.LegNone, "1", "10")
	f.add(warehouseA, candles, ledger.TypeAdjustment, ledger.LegNone, "-2", "-20")

	got, err := f.svc.ComputeStockLevels(context.Background(), Scope{ParishID: parishID})
	require.NoError(t, err)
	require.Len(t, got.Levels, 1)

	lvl := got.Levels[0]
	assert.True(t, lvl.Quantity.Equal(types.MustMoney("6")), "10-3+1-2, got %s", lvl.Quantity)
	assert.True(t, lvl.TotalValue.Equal(types.MustMoney("60")), "got %s", lvl.TotalValue)
	assert.Equal(t, "Candles", lvl.ProductName)
}

func TestComputeStockLevels_NullValueContributesZero(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "10", "100")
	f.add(warehouseA, candles, ledger.TypeOut, ledger.LegNone, "2", "")

	got, err := f.svc.ComputeStockLevels(context.Background(), Scope{ParishID: parishID})
	require.NoError(t, err)
	require.Len(t, got.Levels, 1)
	assert.True(t, got.Levels[0].Quantity.Equal(types.MustMoney("8")))
	// The unvalued outflow leaves the folded value untouched.
	assert.True(t, got.Levels[0].TotalValue.Equal(types.MustMoney("100")))
}

func TestComputeStockLevels_TransferConservation(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, wine, ledger.TypeIn, ledger.LegNone, "12", "120")
	f.add(warehouseA, wine, ledger.TypeTransfer, ledger.LegOutbound, "5", "50")
	f.add(warehouseB, wine, ledger.TypeTransfer, ledger.LegInbound, "5", "50")

	got, err := f.svc.ComputeStockLevels(context.Background(), Scope{ParishID: parishID})
	require.NoError(t, err)
	require.Len(t, got.Levels, 2)

	total := types.Zero()
	totalValue := types.Zero()
	for _, lvl := range got.Levels {
		total = total.Add(lvl.Quantity)
		totalValue = totalValue.Add(lvl.TotalValue)
	}
	// The pair moves stock between warehouses without changing parish totals.
	assert.True(t, total.Equal(types.MustMoney("12")), "got %s", total)
	assert.True(t, totalValue.Equal(types.MustMoney("120")), "got %s", totalValue)
}

func TestComputeStockLevels_FiltersNonPositiveGroups(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "5", "")
	f.add(warehouseA, candles, ledger.TypeOut, ledger.LegNone, "5", "")
	f.add(warehouseA, wine, ledger.TypeIn, ledger.LegNone, "2", "")
	f.add(warehouseA, wine, ledger.TypeOut, ledger.LegNone, "3", "")

	got, err := f.svc.ComputeStockLevels(context.Background(), Scope{ParishID: parishID})
	require.NoError(t, err)
	assert.Empty(t, got.Levels, "zero and negative balances stay hidden")
	assert.Equal(t, 2, got.FilteredOutCount)
}

func TestComputeStockLevels_FiltersUntrackedAndUnknownProducts(t *testing.T) {
	f := newFixture()
	unknown := id.MustParse("018f4e2a-0000-7000-8000-0000000000ff")
	f.add(warehouseA, services, ledger.TypeIn, ledger.LegNone, "4", "")
	f.add(warehouseA, unknown, ledger.TypeIn, ledger.LegNone, "4", "")
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "4", "")

	got, err := f.svc.ComputeStockLevels(context.Background(), Scope{ParishID: parishID})
	require.NoError(t, err)
	require.Len(t, got.Levels, 1)
	assert.Equal(t, candles, got.Levels[0].ProductID)
	assert.Equal(t, 2, got.FilteredOutCount)
}

func TestComputeStockLevels_IdempotentFold(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "10", "100")
	f.add(warehouseA, candles, ledger.TypeOut, ledger.LegNone, "4", "40")

	first, err := f.svc.ComputeStockLevels(context.Background(), Scope{ParishID: parishID})
	require.NoError(t, err)
	second, err := f.svc.ComputeStockLevels(context.Background(), Scope{ParishID: parishID})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeStockLevels_WarehouseScopeValidation(t *testing.T) {
	f := newFixture()
	foreign := id.MustParse("018f4e2a-0000-7000-8000-0000000000fe")
	f.houses.warehouses = append(f.houses.warehouses,
		masterdata.Warehouse{ID: foreign, ParishID: otherParish, Code: "X", Name: "Elsewhere"})

	_, err := f.svc.ComputeStockLevels(context.Background(),
		Scope{ParishID: parishID, WarehouseID: &foreign})
	assert.True(t, apperror.IsNotFound(err), "foreign warehouse must 404, got %v", err)
}

func TestComputeBookInventory_UnionAndMetadata(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "10", "100")
	f.add(warehouseA, services, ledger.TypeIn, ledger.LegNone, "1", "")

	acquisition := types.MustMoney("1500")
	current := types.MustMoney("900")
	f.assets.assets = []masterdata.FixedAsset{
		{ID: id.New(), ParishID: parishID, InventoryNumber: "FA-001", Name: "Organ",
			AcquisitionValue: types.MoneyPtr(acquisition), CurrentValue: types.MoneyPtr(current), Status: masterdata.AssetActive},
		{ID: id.New(), ParishID: parishID, InventoryNumber: "FA-002", Name: "Old pews",
			AcquisitionValue: types.MoneyPtr(acquisition), Status: masterdata.AssetDisposed},
	}

	got, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID}, Query{})
	require.NoError(t, err)

	require.Equal(t, 2, got.Total, "one stock line plus one active asset")
	assert.Equal(t, 1, got.Metadata.ProductCount)
	assert.Equal(t, 1, got.Metadata.FixedAssetCount)
	assert.Equal(t, 1, got.Metadata.FilteredOutCount, "untracked service product")

	var asset *BookInventoryItem
	for i := range got.Items {
		if got.Items[i].Type == ItemFixedAsset {
			asset = &got.Items[i]
		}
	}
	require.NotNil(t, asset)
	assert.True(t, asset.Quantity.Equal(types.MustMoney("1")))
	assert.True(t, asset.Value.Equal(current), "current value wins over acquisition")
}

func TestComputeBookInventory_AssetValueFallback(t *testing.T) {
	f := newFixture()
	acquisition := types.MustMoney("300")
	f.assets.assets = []masterdata.FixedAsset{
		{ID: id.New(), ParishID: parishID, InventoryNumber: "FA-010", Name: "Chalice",
			AcquisitionValue: types.MoneyPtr(acquisition), Status: masterdata.AssetActive},
		{ID: id.New(), ParishID: parishID, InventoryNumber: "FA-011", Name: "Donated banner",
			Status: masterdata.AssetActive},
	}

	got, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID},
		Query{Type: ItemFixedAsset})
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	values := map[string]types.Money{}
	for _, item := range got.Items {
		values[item.Code] = item.Value
	}
	assert.True(t, values["FA-010"].Equal(acquisition))
	assert.True(t, values["FA-011"].IsZero(), "no value recorded folds to zero")
}

func TestComputeBookInventory_TypeFilter(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "10", "100")
	f.assets.assets = []masterdata.FixedAsset{
		{ID: id.New(), ParishID: parishID, InventoryNumber: "FA-001", Name: "Organ", Status: masterdata.AssetActive},
	}

	products, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID},
		Query{Type: ItemProduct})
	require.NoError(t, err)
	require.Len(t, products.Items, 1)
	assert.Equal(t, ItemProduct, products.Items[0].Type)
	require.NotNil(t, products.Items[0].Warehouse)
	assert.Equal(t, "MAIN", products.Items[0].Warehouse.Code)

	assets, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID},
		Query{Type: ItemFixedAsset})
	require.NoError(t, err)
	require.Len(t, assets.Items, 1)
	assert.Equal(t, ItemFixedAsset, assets.Items[0].Type)
}

func TestComputeBookInventory_RowIDsAreUnique(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "4", "40")
	f.add(warehouseB, candles, ledger.TypeIn, ledger.LegNone, "2", "20")
	assetID := id.New()
	f.assets.assets = []masterdata.FixedAsset{
		{ID: assetID, ParishID: parishID, InventoryNumber: "FA-001", Name: "Organ", Status: masterdata.AssetActive},
	}

	got, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID}, Query{})
	require.NoError(t, err)
	require.Len(t, got.Items, 3)

	// The same product stocked in two warehouses shares an item id; the row
	// id stays unique.
	seen := map[string]bool{}
	for _, item := range got.Items {
		require.NotEmpty(t, item.ID)
		assert.False(t, seen[item.ID], "duplicate row id %s", item.ID)
		seen[item.ID] = true
	}
	assert.True(t, seen["product-"+candles.String()+"-"+warehouseA.String()])
	assert.True(t, seen["product-"+candles.String()+"-"+warehouseB.String()])
	assert.True(t, seen["fixed_asset-"+assetID.String()])
}

func TestComputeBookInventory_PaginationAfterMaterialization(t *testing.T) {
	f := newFixture()
	f.add(warehouseA, candles, ledger.TypeIn, ledger.LegNone, "10", "100")
	f.add(warehouseA, wine, ledger.TypeIn, ledger.LegNone, "6", "60")
	f.assets.assets = []masterdata.FixedAsset{
		{ID: id.New(), ParishID: parishID, InventoryNumber: "FA-001", Name: "Organ", Status: masterdata.AssetActive},
	}

	page1, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID},
		Query{Page: 1, PageSize: 2})
	require.NoError(t, err)
	page2, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID},
		Query{Page: 2, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, page1.Total)
	assert.Len(t, page1.Items, 2)
	assert.Len(t, page2.Items, 1)
	// Metadata describes the whole projection, not the page.
	assert.Equal(t, page1.Metadata, page2.Metadata)

	beyond, err := f.svc.ComputeBookInventory(context.Background(), Scope{ParishID: parishID},
		Query{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 3, beyond.Total)
}
