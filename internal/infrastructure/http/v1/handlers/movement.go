package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/domain/ledger"
	"vestry/internal/infrastructure/http/v1/dto"
	"vestry/internal/infrastructure/storage/postgres"
	"vestry/pkg/logger"
)

// MovementHandler serves the movement register endpoints.
type MovementHandler struct {
	*BaseHandler
	service *ledger.Service
	audit   *postgres.AuditService
}

// NewMovementHandler creates the handler.
func NewMovementHandler(service *ledger.Service, audit *postgres.AuditService) *MovementHandler {
	return &MovementHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
		audit:       audit,
	}
}

// Create handles POST /movements.
func (h *MovementHandler) Create(c *gin.Context) {
	var req dto.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	parishID, err := h.ResolveParish(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	m, err := req.ToMovement(parishID)
	if err != nil {
		h.Error(c, err)
		return
	}

	movementID, err := h.service.Append(c.Request.Context(), m)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditCreate(c, "stock_movement", movementID, m)
	h.Created(c, movementID)
}

// CreateTransfer handles POST /movements/transfer.
func (h *MovementHandler) CreateTransfer(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	parishID, err := h.ResolveParish(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	outbound, inbound, err := req.ToPair(parishID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AppendTransferPair(c.Request.Context(), outbound, inbound); err != nil {
		h.Error(c, err)
		return
	}

	h.auditCreate(c, "stock_transfer", outbound.ID, []any{outbound, inbound})
	c.JSON(http.StatusCreated, dto.TransferPairResponse{
		OutboundID: outbound.ID.String(),
		InboundID:  inbound.ID.String(),
	})
}

// List handles GET /inventory/movements.
func (h *MovementHandler) List(c *gin.Context) {
	var query dto.ListMovementsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	parishID, err := h.ResolveParish(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	scope := ledger.Scope{ParishID: parishID}
	if query.WarehouseID != "" {
		warehouseID, err := id.Parse(query.WarehouseID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouse id"))
			return
		}
		scope.WarehouseID = &warehouseID
	}

	filter := ledger.Filter{
		Type:     ledger.MovementType(query.Type),
		DateFrom: query.DateFrom,
		DateTo:   query.DateTo,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.ProductID != "" {
		productID, err := id.Parse(query.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id"))
			return
		}
		filter.ProductID = &productID
	}

	movements, err := h.service.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[ledger.StockMovement]{Items: movements, Count: len(movements)})
}

// auditCreate records the write in the audit trail; a failing audit write
// is logged, never surfaced.
func (h *MovementHandler) auditCreate(c *gin.Context, entityType string, entityID id.ID, payload any) {
	if h.audit == nil {
		return
	}
	if err := h.audit.LogChange(c.Request.Context(), entityType, entityID, postgres.AuditActionCreate, payload); err != nil {
		logger.Warn(c.Request.Context(), "audit write failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}
