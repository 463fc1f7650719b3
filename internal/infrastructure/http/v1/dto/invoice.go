package dto

import (
	"time"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/core/types"
	"vestry/internal/domain/invoicing"
)

// InvoiceItemRequest is one invoice line.
type InvoiceItemRequest struct {
	Description string       `json:"description" binding:"required"`
	Quantity    types.Money  `json:"quantity"`
	UnitPrice   types.Money  `json:"unitPrice"`
	VATRate     types.Money  `json:"vatRate"`
	Total       types.Money  `json:"total"`
	ProductID   *string      `json:"productId,omitempty"`
	WarehouseID *string      `json:"warehouseId,omitempty"`
	UnitCost    *types.Money `json:"unitCost,omitempty"`
}

// CreateInvoiceRequest creates an invoice. Number and formatted number are
// optional manual overrides; left empty the server allocates them.
type CreateInvoiceRequest struct {
	Type           string               `json:"type" binding:"required"`
	Series         string               `json:"series" binding:"required"`
	Number         *int64               `json:"number,omitempty"`
	InvoiceNumber  string               `json:"invoiceNumber,omitempty"`
	CounterpartyID *string              `json:"counterpartyId,omitempty"`
	WarehouseID    *string              `json:"warehouseId,omitempty"`
	IssueDate      *time.Time           `json:"issueDate,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	Items          []InvoiceItemRequest `json:"items" binding:"required"`
}

// ToInput converts the request into the service input.
func (r *CreateInvoiceRequest) ToInput(parishID id.ID) (invoicing.CreateInput, error) {
	inv := &invoicing.Invoice{
		ParishID: parishID,
		Type:     invoicing.InvoiceType(r.Type),
		Series:   r.Series,
		Notes:    r.Notes,
	}
	if r.IssueDate != nil {
		inv.IssueDate = *r.IssueDate
	}
	if r.CounterpartyID != nil {
		cid, err := id.Parse(*r.CounterpartyID)
		if err != nil {
			return invoicing.CreateInput{}, apperror.NewValidation("invalid counterparty id")
		}
		inv.CounterpartyID = &cid
	}
	if r.WarehouseID != nil {
		wid, err := id.Parse(*r.WarehouseID)
		if err != nil {
			return invoicing.CreateInput{}, apperror.NewValidation("invalid warehouse id")
		}
		inv.WarehouseID = &wid
	}

	for i, item := range r.Items {
		domainItem := invoicing.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Total:       item.Total,
			UnitCost:    item.UnitCost,
		}
		if item.ProductID != nil {
			pid, err := id.Parse(*item.ProductID)
			if err != nil {
				return invoicing.CreateInput{}, apperror.NewValidation("invalid product id").WithDetail("line", i)
			}
			domainItem.ProductID = &pid
		}
		if item.WarehouseID != nil {
			wid, err := id.Parse(*item.WarehouseID)
			if err != nil {
				return invoicing.CreateInput{}, apperror.NewValidation("invalid warehouse id").WithDetail("line", i)
			}
			domainItem.WarehouseID = &wid
		}
		inv.Items = append(inv.Items, domainItem)
	}

	return invoicing.CreateInput{
		Invoice:         inv,
		ManualNumber:    r.Number,
		ManualFormatted: r.InvoiceNumber,
	}, nil
}

// ListInvoicesQuery filters invoice listings.
type ListInvoicesQuery struct {
	Type     string     `form:"type"`
	Series   string     `form:"series"`
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}
