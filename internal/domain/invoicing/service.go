package invoicing

import (
	"context"
	"fmt"
	"time"

	"vestry/internal/core/apperror"
	appctx "vestry/internal/core/context"
	"vestry/internal/core/id"
	"vestry/internal/core/tx"
	"vestry/pkg/logger"
	"vestry/pkg/numerator"
)

// Service creates and reads invoices.
type Service struct {
	repo       Repository
	allocator  *numerator.Allocator
	translator *Translator
	txManager  tx.Manager
}

// NewService creates the invoicing service.
func NewService(repo Repository, allocator *numerator.Allocator, translator *Translator, txManager tx.Manager) *Service {
	return &Service{
		repo:       repo,
		allocator:  allocator,
		translator: translator,
		txManager:  txManager,
	}
}

// CreateInput carries a new invoice plus optional manual numbering.
type CreateInput struct {
	Invoice *Invoice
	// ManualNumber bypasses max+1 allocation but still goes through the
	// uniqueness checks.
	ManualNumber *int64
	// ManualFormatted overrides the SERIES-000001 rendering.
	ManualFormatted string
}

// Create allocates a document number, persists the invoice atomically, then
// derives stock movements as a best-effort post-step.
//
// The number is re-checked inside the write transaction: two writers can
// both see the same max, and the loser gets a conflict to retry. A
// translation failure is logged and swallowed; the committed invoice is
// never rolled back for it.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Invoice, error) {
	inv := input.Invoice
	if err := s.validate(inv); err != nil {
		return nil, err
	}

	scope := s.numberScope(inv)
	alloc, err := s.allocator.Allocate(ctx, scope, numerator.Request{
		Number:    input.ManualNumber,
		Formatted: input.ManualFormatted,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv.ID = id.New()
	inv.Number = alloc.Number
	inv.InvoiceNumber = alloc.Formatted
	if inv.Status == "" {
		inv.Status = StatusIssued
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}
	if inv.CreatedBy == "" {
		inv.CreatedBy = appctx.GetActorID(ctx)
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	for i := range inv.Items {
		inv.Items[i].ID = id.New()
		inv.Items[i].InvoiceID = inv.ID
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Final uniqueness check against committed rows. Whoever commits
		// first wins; the loser surfaces a conflict for the caller to retry
		// with a fresh allocation.
		taken, err := s.repo.NumberExists(ctx, scope, inv.Number)
		if err != nil {
			return fmt.Errorf("re-check number: %w", err)
		}
		if taken {
			return apperror.NewConflict("document number was taken by a concurrent writer").
				WithDetail("number", inv.InvoiceNumber).
				WithDetail("scope", scope.Key())
		}
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"type", inv.Type,
		"items", len(inv.Items),
	)

	// Best effort: the invoice is committed, movement derivation must not
	// undo or fail it.
	if err := s.translator.Translate(ctx, inv); err != nil {
		logger.Warn(ctx, "stock movement derivation failed",
			"invoice_id", inv.ID,
			"error", err,
		)
	}

	return inv, nil
}

// GetByID returns one invoice with its items.
func (s *Service) GetByID(ctx context.Context, parishID, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, parishID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	return inv, nil
}

// List returns invoices of a parish, newest first.
func (s *Service) List(ctx context.Context, parishID id.ID, filter ListFilter) ([]Invoice, error) {
	if id.IsNil(parishID) {
		return nil, apperror.NewValidation("parish is required")
	}
	return s.repo.List(ctx, parishID, filter)
}

func (s *Service) validate(inv *Invoice) error {
	if inv == nil {
		return apperror.NewValidation("invoice is required")
	}
	if id.IsNil(inv.ParishID) {
		return apperror.NewValidation("parish is required")
	}
	if !inv.Type.Valid() {
		return apperror.NewValidation(fmt.Sprintf("unknown invoice type %q", inv.Type))
	}
	if inv.Series == "" {
		return apperror.NewValidation("invoice series is required")
	}
	if len(inv.Items) == 0 {
		return apperror.NewValidation("invoice requires at least one line item")
	}
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.Description == "" {
			return apperror.NewValidation(fmt.Sprintf("line %d: description is required", i))
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("line %d: unit price must not be negative", i))
		}
	}
	return nil
}

// numberScope builds the numbering partition for an invoice: parish, series,
// type, and warehouse-or-none.
func (s *Service) numberScope(inv *Invoice) numerator.Scope {
	return numerator.Scope{
		ParishID:     inv.ParishID,
		Series:       inv.Series,
		DocumentType: string(inv.Type),
		WarehouseID:  inv.WarehouseID,
	}
}
