package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/domain/invoicing"
	"vestry/internal/infrastructure/http/v1/dto"
	"vestry/internal/infrastructure/storage/postgres"
	"vestry/pkg/logger"
)

// InvoiceHandler serves invoice creation and retrieval.
type InvoiceHandler struct {
	*BaseHandler
	service *invoicing.Service
	audit   *postgres.AuditService
}

// NewInvoiceHandler creates the handler.
func NewInvoiceHandler(service *invoicing.Service, audit *postgres.AuditService) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
		audit:       audit,
	}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	parishID, err := h.ResolveParish(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	input, err := req.ToInput(parishID)
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		if err := h.audit.LogChange(c.Request.Context(), "invoice", inv.ID, postgres.AuditActionCreate, inv); err != nil {
			logger.Warn(c.Request.Context(), "audit write failed",
				"entity_type", "invoice",
				"entity_id", inv.ID,
				"error", err,
			)
		}
	}

	// The full persisted document goes back, final number included, whether
	// or not movement derivation succeeded.
	c.JSON(http.StatusCreated, inv)
}

// GetByID handles GET /invoices/:id.
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	parishID, err := h.ResolveParish(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid invoice id"))
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), parishID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	var query dto.ListInvoicesQuery
	if !h.BindQuery(c, &query) {
		return
	}
	parishID, err := h.ResolveParish(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	invoices, err := h.service.List(c.Request.Context(), parishID, invoicing.ListFilter{
		Type:     invoicing.InvoiceType(query.Type),
		Series:   query.Series,
		DateFrom: query.DateFrom,
		DateTo:   query.DateTo,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[invoicing.Invoice]{Items: invoices, Count: len(invoices)})
}

// History handles GET /invoices/:id/history, serving the audit trail of one
// invoice, newest first.
func (h *InvoiceHandler) History(c *gin.Context) {
	if h.audit == nil {
		h.Error(c, apperror.NewNotFound("audit trail", "disabled"))
		return
	}
	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid invoice id"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	entries, err := h.audit.GetEntityHistory(c.Request.Context(), "invoice", invoiceID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[postgres.AuditEntry]{Items: entries, Count: len(entries)})
}
