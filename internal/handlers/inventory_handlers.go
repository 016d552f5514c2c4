package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/middleware"
	"github.com/marjanov802/resellingtracker-sub000/internal/repositories"
	"github.com/marjanov802/resellingtracker-sub000/internal/services"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// InventoryHandler exposes inventory CRUD over HTTP.
type InventoryHandler struct {
	service services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(service services.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// respondServiceError maps service and repository sentinels onto HTTP
// responses. Not-found and wrong-owner are indistinguishable on purpose.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Input validation failed", err.Error()))
	case errors.Is(err, repositories.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found", ""))
	case errors.Is(err, repositories.ErrDuplicateKey):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Resource already exists", ""))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Insufficient stock", err.Error()))
	case errors.Is(err, services.ErrRatesUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeUpstreamError, "Exchange rates unavailable", ""))
	default:
		utils.LogError(err, "request failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error", ""))
	}
}

// CreateItem handles POST /inventory.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req services.CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	view, err := h.service.CreateItem(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetItem handles GET /inventory/:id.
func (h *InventoryHandler) GetItem(c *gin.Context) {
	view, err := h.service.GetItem(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListItems handles GET /inventory. An optional ?currency= converts every
// item's figures into that display currency.
func (h *InventoryHandler) ListItems(c *gin.Context) {
	views, err := h.service.ListItems(c.Request.Context(), middleware.UserID(c), c.Query("currency"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "count": len(views)})
}

// UpdateItem handles PATCH /inventory/:id.
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	var req services.UpdateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	view, err := h.service.UpdateItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteItem handles DELETE /inventory/:id.
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.service.DeleteItem(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
