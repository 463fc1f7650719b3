// Package numerator provides document auto-numbering.
//
// Numbers are allocated per scope: (parish, series, document type,
// warehouse-or-none). Allocation is max+1 over persisted documents with no
// advisory locking; the caller re-checks uniqueness inside its own write
// transaction and retries on conflict.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
)

// DefaultPadWidth is the zero-pad width of the numeric part.
const DefaultPadWidth = 6

// Scope identifies an independent numbering sequence.
// A nil WarehouseID is its own partition: it matches only documents whose
// warehouse is also NULL, never "any warehouse".
type Scope struct {
	ParishID     id.ID
	Series       string
	DocumentType string
	WarehouseID  *id.ID
}

// Key renders the scope as a stable string for logs and error details.
func (s Scope) Key() string {
	wh := "none"
	if s.WarehouseID != nil {
		wh = s.WarehouseID.String()
	}
	return fmt.Sprintf("%s/%s/%s/%s", s.ParishID, s.Series, s.DocumentType, wh)
}

// Store is the persistence surface the allocator needs. The invoice
// repository implements it; the invoice service calls NumberExists again
// inside its write transaction for the final uniqueness check.
type Store interface {
	// MaxNumber returns the highest allocated number in scope and whether
	// any document exists in the scope at all.
	MaxNumber(ctx context.Context, scope Scope) (int64, bool, error)

	// NumberExists reports whether number is already taken in scope.
	NumberExists(ctx context.Context, scope Scope, number int64) (bool, error)
}

// Request carries caller overrides for manual numbering.
// A nil Number means "allocate the next free number".
type Request struct {
	Number    *int64
	Formatted string
}

// Allocation is the result of a successful allocation.
type Allocation struct {
	Number    int64
	Formatted string
}

// Allocator hands out document numbers backed by a Store.
type Allocator struct {
	store    Store
	padWidth int
}

// New creates an Allocator with the default pad width.
func New(store Store) *Allocator {
	return &Allocator{store: store, padWidth: DefaultPadWidth}
}

// WithPadWidth overrides the zero-pad width.
func (a *Allocator) WithPadWidth(w int) *Allocator {
	if w > 0 {
		a.padWidth = w
	}
	return a
}

// Allocate picks the next number for scope, or validates a manual override.
//
// Auto mode reads max+1 from the store. Manual mode skips the max lookup but
// still checks uniqueness, so a duplicate override fails here rather than at
// persist time. Either way the caller must re-check inside its transaction:
// two concurrent allocations can both see the same max.
func (a *Allocator) Allocate(ctx context.Context, scope Scope, req Request) (Allocation, error) {
	if scope.Series == "" {
		return Allocation{}, apperror.NewValidation("numbering series is required")
	}
	if scope.DocumentType == "" {
		return Allocation{}, apperror.NewValidation("document type is required")
	}
	if id.IsNil(scope.ParishID) {
		return Allocation{}, apperror.NewValidation("parish is required for numbering")
	}

	var number int64
	if req.Number != nil {
		if *req.Number <= 0 {
			return Allocation{}, apperror.NewValidation("manual document number must be positive")
		}
		number = *req.Number

		taken, err := a.store.NumberExists(ctx, scope, number)
		if err != nil {
			return Allocation{}, fmt.Errorf("check manual number: %w", err)
		}
		if taken {
			return Allocation{}, apperror.NewDuplicate("document number", "number",
				a.Format(scope.Series, number)).WithDetail("scope", scope.Key())
		}
	} else {
		max, found, err := a.store.MaxNumber(ctx, scope)
		if err != nil {
			return Allocation{}, fmt.Errorf("max number lookup: %w", err)
		}
		if !found {
			number = 1
		} else {
			number = max + 1
		}
	}

	formatted := req.Formatted
	if formatted == "" {
		formatted = a.Format(scope.Series, number)
	}

	return Allocation{Number: number, Formatted: formatted}, nil
}

// Format renders a number in the canonical SERIES-000001 form.
func (a *Allocator) Format(series string, num int64) string {
	return fmt.Sprintf("%s-%0*d", series, a.padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number: everything
// after the last dash. Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndexByte(formatted, '-')
	if i < 0 || i == len(formatted)-1 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return num
}
