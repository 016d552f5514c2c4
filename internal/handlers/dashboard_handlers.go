package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/middleware"
	"github.com/marjanov802/resellingtracker-sub000/internal/services"
)

// DashboardHandler serves the aggregated profit summary.
type DashboardHandler struct {
	service services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetSummary handles GET /dashboard. An optional ?currency= selects the
// aggregation currency, defaulting to GBP.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), middleware.UserID(c), c.Query("currency"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
