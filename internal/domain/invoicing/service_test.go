package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/core/types"
	"vestry/internal/domain/ledger"
	"vestry/pkg/numerator"
)

var (
	parishID   = id.MustParse("018f4e2a-0000-7000-8000-0000000000aa")
	warehouseA = id.MustParse("018f4e2a-0000-7000-8000-0000000000a1")
	candles    = id.MustParse("018f4e2a-0000-7000-8000-0000000000b1")
)

// fakeInvoiceRepo stores invoices and implements numerator.Store over them.
type fakeInvoiceRepo struct {
	invoices []Invoice
	// conflictOnRecheck makes the in-transaction uniqueness check report the
	// number as taken, simulating a concurrent writer committing first.
	conflictOnRecheck bool
}

func (r *fakeInvoiceRepo) MaxNumber(_ context.Context, scope numerator.Scope) (int64, bool, error) {
	var max int64
	found := false
	for _, inv := range r.invoices {
		if r.scopeOf(&inv).Key() != scope.Key() {
			continue
		}
		found = true
		if inv.Number > max {
			max = inv.Number
		}
	}
	return max, found, nil
}

func (r *fakeInvoiceRepo) NumberExists(_ context.Context, scope numerator.Scope, number int64) (bool, error) {
	if r.conflictOnRecheck {
		return true, nil
	}
	for _, inv := range r.invoices {
		if r.scopeOf(&inv).Key() == scope.Key() && inv.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) scopeOf(inv *Invoice) numerator.Scope {
	return numerator.Scope{
		ParishID:     inv.ParishID,
		Series:       inv.Series,
		DocumentType: string(inv.Type),
		WarehouseID:  inv.WarehouseID,
	}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	r.invoices = append(r.invoices, *inv)
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, parish, invoiceID id.ID) (*Invoice, error) {
	for i := range r.invoices {
		if r.invoices[i].ParishID == parish && r.invoices[i].ID == invoiceID {
			return &r.invoices[i], nil
		}
	}
	return nil, nil
}

func (r *fakeInvoiceRepo) List(_ context.Context, parish id.ID, _ ListFilter) ([]Invoice, error) {
	var res []Invoice
	for _, inv := range r.invoices {
		if inv.ParishID == parish {
			res = append(res, inv)
		}
	}
	return res, nil
}

// fakeMovementRepo backs the register service used by the translator.
type fakeMovementRepo struct {
	rows []ledger.StockMovement
	fail bool
}

func (f *fakeMovementRepo) Append(_ context.Context, m *ledger.StockMovement) error {
	if f.fail {
		return errors.New("register unavailable")
	}
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeMovementRepo) AppendPair(_ context.Context, out, in *ledger.StockMovement) error {
	f.rows = append(f.rows, *out, *in)
	return nil
}

func (f *fakeMovementRepo) ListByScope(_ context.Context, _ ledger.Scope, _ ledger.Filter) ([]ledger.StockMovement, error) {
	return f.rows, nil
}

// passthroughTx runs the closure without a real transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	repo      *fakeInvoiceRepo
	movements *fakeMovementRepo
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:      &fakeInvoiceRepo{},
		movements: &fakeMovementRepo{},
	}
	translator := NewTranslator(ledger.NewService(f.movements))
	f.svc = NewService(f.repo, numerator.New(f.repo), translator, passthroughTx{})
	return f
}

func invoiceFixture(typ InvoiceType) *Invoice {
	return &Invoice{
		ParishID:    parishID,
		Type:        typ,
		Series:      "FAC",
		WarehouseID: &warehouseA,
		IssueDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedBy:   "user-1",
		Items: []InvoiceItem{
			{
				Description: "Candles, large",
				Quantity:    types.MustMoney("10"),
				UnitPrice:   types.MustMoney("6"),
				Total:       types.MustMoney("60"),
				ProductID:   &candles,
				UnitCost:    types.MoneyPtr(types.MustMoney("4")),
			},
			{
				Description: "Venue donation",
				Quantity:    types.MustMoney("1"),
				UnitPrice:   types.MustMoney("150"),
				Total:       types.MustMoney("150"),
			},
		},
	}
}

func TestCreate_AllocatesNumberAndPersists(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Create(context.Background(), CreateInput{Invoice: invoiceFixture(TypeIssued)})
	require.NoError(t, err)

	assert.Equal(t, int64(1), inv.Number)
	assert.Equal(t, "FAC-000001", inv.InvoiceNumber)
	require.Len(t, f.repo.invoices, 1)

	second, err := f.svc.Create(context.Background(), CreateInput{Invoice: invoiceFixture(TypeIssued)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, "FAC-000002", second.InvoiceNumber)
}

func TestCreate_TranslatesEligibleLinesOnly(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Create(context.Background(), CreateInput{Invoice: invoiceFixture(TypeIssued)})
	require.NoError(t, err)

	// One of the two lines has a product; only it becomes a movement.
	require.Len(t, f.movements.rows, 1)
	m := f.movements.rows[0]
	assert.Equal(t, ledger.TypeOut, m.Type)
	assert.Equal(t, candles, m.ProductID)
	assert.Equal(t, warehouseA, m.WarehouseID)
	require.NotNil(t, m.SourceDocumentID)
	assert.Equal(t, inv.ID, *m.SourceDocumentID)
	// Valuation uses the stock cost, not the sale price.
	require.NotNil(t, m.TotalValue)
	assert.True(t, m.TotalValue.Equal(types.MustMoney("40")), "10 x 4, got %s", m.TotalValue)
}

func TestCreate_ReceivedInvoiceMovesStockIn(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateInput{Invoice: invoiceFixture(TypeReceived)})
	require.NoError(t, err)
	require.Len(t, f.movements.rows, 1)
	assert.Equal(t, ledger.TypeIn, f.movements.rows[0].Type)
}

func TestCreate_LineWithoutCostUsesLineTotal(t *testing.T) {
	f := newFixture()
	inv := invoiceFixture(TypeIssued)
	inv.Items[0].UnitCost = nil

	_, err := f.svc.Create(context.Background(), CreateInput{Invoice: inv})
	require.NoError(t, err)
	require.Len(t, f.movements.rows, 1)
	require.NotNil(t, f.movements.rows[0].TotalValue)
	assert.True(t, f.movements.rows[0].TotalValue.Equal(types.MustMoney("60")))
}

func TestCreate_TranslatorFailureDoesNotFailInvoice(t *testing.T) {
	f := newFixture()
	f.movements.fail = true

	inv, err := f.svc.Create(context.Background(), CreateInput{Invoice: invoiceFixture(TypeIssued)})
	require.NoError(t, err, "movement derivation is best effort")
	require.NotNil(t, inv)
	assert.Len(t, f.repo.invoices, 1, "invoice committed despite register failure")
	assert.Empty(t, f.movements.rows)

	// The caller still gets the complete persisted document: final number,
	// items, and status untouched by the failed derivation.
	assert.Equal(t, int64(1), inv.Number)
	assert.Equal(t, "FAC-000001", inv.InvoiceNumber)
	assert.Equal(t, StatusIssued, inv.Status)
	assert.Len(t, inv.Items, 2)
}

func TestCreate_ConflictOnConcurrentNumber(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), CreateInput{Invoice: invoiceFixture(TypeIssued)})
	require.NoError(t, err)

	f.repo.conflictOnRecheck = true

	_, err = f.svc.Create(context.Background(), CreateInput{Invoice: invoiceFixture(TypeIssued)})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Len(t, f.repo.invoices, 1, "losing writer leaves no row behind")
}

func TestCreate_ManualNumberOverride(t *testing.T) {
	f := newFixture()
	n := int64(500)

	inv, err := f.svc.Create(context.Background(), CreateInput{
		Invoice:      invoiceFixture(TypeIssued),
		ManualNumber: &n,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), inv.Number)
	assert.Equal(t, "FAC-000500", inv.InvoiceNumber)

	// Duplicate manual number in the same scope is rejected up front.
	_, err = f.svc.Create(context.Background(), CreateInput{
		Invoice:      invoiceFixture(TypeIssued),
		ManualNumber: &n,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestCreate_ScopesByWarehouseAndType(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Invoice: invoiceFixture(TypeIssued)})
	require.NoError(t, err)

	// Same series, different type: independent sequence.
	received, err := f.svc.Create(ctx, CreateInput{Invoice: invoiceFixture(TypeReceived)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), received.Number)

	// Same series and type, no warehouse: independent sequence again.
	noWarehouse := invoiceFixture(TypeIssued)
	noWarehouse.WarehouseID = nil
	noWarehouse.Items[0].WarehouseID = &warehouseA
	third, err := f.svc.Create(ctx, CreateInput{Invoice: noWarehouse})
	require.NoError(t, err)
	assert.Equal(t, int64(1), third.Number)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	inv := invoiceFixture(TypeIssued)
	inv.Series = ""
	_, err := f.svc.Create(ctx, CreateInput{Invoice: inv})
	assert.True(t, apperror.IsValidation(err))

	inv = invoiceFixture(TypeIssued)
	inv.Items = nil
	_, err = f.svc.Create(ctx, CreateInput{Invoice: inv})
	assert.True(t, apperror.IsValidation(err))

	inv = invoiceFixture(TypeIssued)
	inv.Items[0].Quantity = types.MustMoney("0")
	_, err = f.svc.Create(ctx, CreateInput{Invoice: inv})
	assert.True(t, apperror.IsValidation(err))
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetByID(context.Background(), parishID, id.New())
	assert.True(t, apperror.IsNotFound(err))
}
