package numerator

import (
	"context"
	"sync"
	"testing"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
)

// memStore keeps allocated numbers per scope key, simulating persisted rows.
type memStore struct {
	mu      sync.Mutex
	numbers map[string][]int64
}

func newMemStore() *memStore {
	return &memStore{numbers: make(map[string][]int64)}
}

func (m *memStore) add(scope Scope, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numbers[scope.Key()] = append(m.numbers[scope.Key()], n)
}

func (m *memStore) MaxNumber(_ context.Context, scope Scope) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nums := m.numbers[scope.Key()]
	if len(nums) == 0 {
		return 0, false, nil
	}
	var max int64
	for _, n := range nums {
		if n > max {
			max = n
		}
	}
	return max, true, nil
}

func (m *memStore) NumberExists(_ context.Context, scope Scope, number int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.numbers[scope.Key()] {
		if n == number {
			return true, nil
		}
	}
	return false, nil
}

func testScope(warehouse *id.ID) Scope {
	return Scope{
		ParishID:     id.MustParse("018f4e2a-0000-7000-8000-000000000001"),
		Series:       "FAC",
		DocumentType: "issued",
		WarehouseID:  warehouse,
	}
}

func TestAllocate_FirstNumberInScope(t *testing.T) {
	store := newMemStore()
	alloc := New(store)
	ctx := context.Background()

	got, err := alloc.Allocate(ctx, testScope(nil), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != 1 {
		t.Errorf("expected number 1, got %d", got.Number)
	}
	if got.Formatted != "FAC-000001" {
		t.Errorf("expected FAC-000001, got %s", got.Formatted)
	}
}

func TestAllocate_MaxPlusOne(t *testing.T) {
	store := newMemStore()
	scope := testScope(nil)
	store.add(scope, 1)
	store.add(scope, 7)
	store.add(scope, 3)

	got, err := New(store).Allocate(context.Background(), scope, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != 8 {
		t.Errorf("expected 8 after max 7, got %d", got.Number)
	}
	if got.Formatted != "FAC-000008" {
		t.Errorf("expected FAC-000008, got %s", got.Formatted)
	}
}

func TestAllocate_ScopesAreIndependent(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	warehouseA := id.MustParse("018f4e2a-0000-7000-8000-00000000000a")
	scopeNone := testScope(nil)
	scopeA := testScope(&warehouseA)

	store.add(scopeNone, 5)

	// Different warehouse partition: nil-warehouse numbers do not count here.
	got, err := New(store).Allocate(ctx, scopeA, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != 1 {
		t.Errorf("expected independent scope to start at 1, got %d", got.Number)
	}

	got, err = New(store).Allocate(ctx, scopeNone, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != 6 {
		t.Errorf("expected 6 in nil-warehouse scope, got %d", got.Number)
	}
}

func TestAllocate_ManualOverride(t *testing.T) {
	store := newMemStore()
	scope := testScope(nil)
	store.add(scope, 1)
	store.add(scope, 2)

	n := int64(100)
	got, err := New(store).Allocate(context.Background(), scope, Request{Number: &n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != 100 {
		t.Errorf("expected manual number 100, got %d", got.Number)
	}
	if got.Formatted != "FAC-000100" {
		t.Errorf("expected FAC-000100, got %s", got.Formatted)
	}
}

func TestAllocate_ManualOverrideDuplicate(t *testing.T) {
	store := newMemStore()
	scope := testScope(nil)
	store.add(scope, 42)

	n := int64(42)
	_, err := New(store).Allocate(context.Background(), scope, Request{Number: &n})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeDuplicate {
		t.Errorf("expected DUPLICATE_ENTRY, got %v", err)
	}
}

func TestAllocate_CustomFormattedString(t *testing.T) {
	store := newMemStore()
	got, err := New(store).Allocate(context.Background(), testScope(nil),
		Request{Formatted: "FAC/2026/001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Formatted != "FAC/2026/001" {
		t.Errorf("expected caller-supplied format preserved, got %s", got.Formatted)
	}
	if got.Number != 1 {
		t.Errorf("expected allocated number 1, got %d", got.Number)
	}
}

func TestAllocate_CustomPadWidth(t *testing.T) {
	store := newMemStore()
	got, err := New(store).WithPadWidth(4).Allocate(context.Background(), testScope(nil), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Formatted != "FAC-0001" {
		t.Errorf("expected FAC-0001 with pad width 4, got %s", got.Formatted)
	}
}

func TestAllocate_ValidatesScope(t *testing.T) {
	store := newMemStore()
	scope := testScope(nil)
	scope.Series = ""
	_, err := New(store).Allocate(context.Background(), scope, Request{})
	if !apperror.IsValidation(err) {
		t.Errorf("expected validation error for empty series, got %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	if n := ParseNumber("FAC-000042"); n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
	// Dashes in the series: the numeric part is after the last one.
	if n := ParseNumber("FAC-2026-000007"); n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
	if n := ParseNumber("garbage"); n != -1 {
		t.Errorf("expected -1 for unparsable input, got %d", n)
	}
	if n := ParseNumber("FAC-"); n != -1 {
		t.Errorf("expected -1 for empty numeric part, got %d", n)
	}
}
