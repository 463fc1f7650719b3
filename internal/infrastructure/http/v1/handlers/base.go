// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vestry/internal/core/apperror"
	appctx "vestry/internal/core/context"
	"vestry/internal/core/id"
	"vestry/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ResolveParish returns the parish a request operates on: an explicit
// parishId query parameter when given, else the actor's home parish.
func (h *BaseHandler) ResolveParish(c *gin.Context) (id.ID, error) {
	if raw := c.Query("parishId"); raw != "" {
		parishID, err := id.Parse(raw)
		if err != nil {
			return id.Nil(), apperror.NewValidation("invalid parish id")
		}
		return parishID, nil
	}
	raw := appctx.GetParishID(c.Request.Context())
	if raw == "" {
		return id.Nil(), apperror.NewValidation("parish could not be resolved for this request")
	}
	parishID, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid parish in actor token")
	}
	return parishID, nil
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, i id.ID) {
	c.JSON(http.StatusCreated, dto.NewIDResponse(i))
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
