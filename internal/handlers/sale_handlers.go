package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/middleware"
	"github.com/marjanov802/resellingtracker-sub000/internal/models"
	"github.com/marjanov802/resellingtracker-sub000/internal/services"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// SaleHandler exposes sale recording and history over HTTP.
type SaleHandler struct {
	service services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(service services.SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

// RecordSale handles POST /sales.
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	view, err := h.service.RecordSale(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListSales handles GET /sales with optional ?platform=, ?from=, ?to=
// (RFC 3339, inclusive) and ?currency= for display conversion.
func (h *SaleHandler) ListSales(c *gin.Context) {
	filters := models.SaleFilters{}
	if platform := c.Query("platform"); platform != "" {
		filters.Platform = &platform
	}
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	filters.From = from

	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}
	filters.To = to

	views, err := h.service.ListSales(c.Request.Context(), middleware.UserID(c), filters, c.Query("currency"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": views, "count": len(views)})
}

// DeleteSale handles DELETE /sales/:id.
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	if err := h.service.DeleteSale(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSales handles POST /sales/bulk-delete.
func (h *SaleHandler) DeleteSales(c *gin.Context) {
	var req services.DeleteSalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	deleted, err := h.service.DeleteSales(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// parseTimeQuery reads an optional RFC 3339 query parameter. Responds 400 and
// returns ok=false when the value is present but malformed.
func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		utils.RespondValidationFailed(c, name+" must be an RFC 3339 timestamp")
		return nil, false
	}
	return &parsed, true
}
