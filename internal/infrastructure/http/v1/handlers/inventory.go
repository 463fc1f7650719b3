package handlers

import (
	"github.com/gin-gonic/gin"

	"vestry/internal/core/apperror"
	"vestry/internal/core/id"
	"vestry/internal/domain/valuation"
	"vestry/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves the valuation projections.
type InventoryHandler struct {
	*BaseHandler
	service *valuation.Service
}

// NewInventoryHandler creates the handler.
func NewInventoryHandler(service *valuation.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

func (h *InventoryHandler) scope(c *gin.Context, rawWarehouse string) (valuation.Scope, error) {
	parishID, err := h.ResolveParish(c)
	if err != nil {
		return valuation.Scope{}, err
	}
	scope := valuation.Scope{ParishID: parishID}
	if rawWarehouse != "" {
		warehouseID, err := id.Parse(rawWarehouse)
		if err != nil {
			return valuation.Scope{}, apperror.NewValidation("invalid warehouse id")
		}
		scope.WarehouseID = &warehouseID
	}
	return scope, nil
}

// StockLevels handles GET /inventory/stock-levels.
func (h *InventoryHandler) StockLevels(c *gin.Context) {
	var query dto.StockLevelsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	scope, err := h.scope(c, query.WarehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.service.ComputeStockLevels(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// BookInventory handles GET /inventory/book-inventory.
func (h *InventoryHandler) BookInventory(c *gin.Context) {
	var query dto.BookInventoryQuery
	if !h.BindQuery(c, &query) {
		return
	}
	query.Defaults()

	scope, err := h.scope(c, query.WarehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	itemType := valuation.ItemType(query.Type)
	switch itemType {
	case "", valuation.ItemProduct, valuation.ItemFixedAsset:
	default:
		h.Error(c, apperror.NewValidation("type must be product or fixed_asset"))
		return
	}

	inventory, err := h.service.ComputeBookInventory(c.Request.Context(), scope, valuation.Query{
		Type:     itemType,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inventory)
}
