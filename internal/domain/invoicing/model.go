// Package invoicing provides invoice creation with per-scope document
// numbering and derivation of stock movements from committed invoices.
package invoicing

import (
	"time"

	"vestry/internal/core/id"
	"vestry/internal/core/types"
)

// InvoiceType distinguishes sales from purchase invoices.
type InvoiceType string

const (
	TypeIssued   InvoiceType = "issued"
	TypeReceived InvoiceType = "received"
)

// Valid reports whether t is a known invoice type.
func (t InvoiceType) Valid() bool {
	return t == TypeIssued || t == TypeReceived
}

// InvoiceStatus is the document lifecycle state.
type InvoiceStatus string

const (
	StatusDraft  InvoiceStatus = "draft"
	StatusIssued InvoiceStatus = "issued"
	StatusPaid   InvoiceStatus = "paid"
)

// InvoiceItem is one line of an invoice. Lines referencing a catalog
// product additionally drive stock movements; free-text lines do not.
type InvoiceItem struct {
	ID          id.ID          `db:"id" json:"id"`
	InvoiceID   id.ID          `db:"invoice_id" json:"invoiceId"`
	Description string         `db:"description" json:"description"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`
	VATRate     types.Money    `db:"vat_rate" json:"vatRate"`
	Total       types.Money    `db:"total" json:"total"`

	// ProductID links the line to a catalog product; nil lines are
	// invoiced but never touch the stock register.
	ProductID *id.ID `db:"product_id" json:"productId,omitempty"`
	// WarehouseID overrides the invoice-level warehouse for this line.
	WarehouseID *id.ID `db:"warehouse_id" json:"warehouseId,omitempty"`
	// UnitCost is the stock valuation cost, distinct from the sale price.
	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`
}

// Invoice is an issued or received invoice document.
type Invoice struct {
	ID       id.ID       `db:"id" json:"id"`
	ParishID id.ID       `db:"parish_id" json:"parishId"`
	Type     InvoiceType `db:"invoice_type" json:"type"`

	// Series, Number and InvoiceNumber are assigned exactly once at
	// creation and never reassigned.
	Series        string `db:"series" json:"series"`
	Number        int64  `db:"number" json:"number"`
	InvoiceNumber string `db:"invoice_number" json:"invoiceNumber"`

	CounterpartyID *id.ID `db:"counterparty_id" json:"counterpartyId,omitempty"`
	// WarehouseID is the default stock location for line items; it also
	// partitions the numbering sequence when set.
	WarehouseID *id.ID `db:"warehouse_id" json:"warehouseId,omitempty"`

	Items []InvoiceItem `db:"-" json:"items"`

	IssueDate time.Time     `db:"issue_date" json:"issueDate"`
	Status    InvoiceStatus `db:"status" json:"status"`
	Notes     string        `db:"notes" json:"notes,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ItemWarehouse resolves the warehouse a line's stock movement belongs to:
// the line override when present, else the invoice default.
func (inv *Invoice) ItemWarehouse(item *InvoiceItem) *id.ID {
	if item.WarehouseID != nil {
		return item.WarehouseID
	}
	return inv.WarehouseID
}
