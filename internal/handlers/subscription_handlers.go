package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/middleware"
	"github.com/marjanov802/resellingtracker-sub000/internal/services"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// SubscriptionHandler exposes checkout, portal and status endpoints. These
// sit behind authentication but not behind the subscription gate, since a
// user without a subscription must be able to reach them.
type SubscriptionHandler struct {
	service services.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(service services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// CreateCheckout handles POST /subscription/checkout.
func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	email := c.GetString(middleware.ContextEmailKey)
	url, err := h.service.CreateCheckout(c.Request.Context(), middleware.UserID(c), email, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTrialAlreadyUsed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Trial has already been used", ""))
		case errors.Is(err, services.ErrInvalidPlan):
			utils.RespondValidationFailed(c, "plan must be one of trial, monthly, yearly")
		default:
			utils.LogError(err, "checkout creation failed")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeUpstreamError, "Could not start checkout", ""))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortal handles POST /subscription/portal.
func (h *SubscriptionHandler) CreatePortal(c *gin.Context) {
	url, err := h.service.CreatePortal(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, services.ErrNoSubscription) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No subscription on file", ""))
			return
		}
		utils.LogError(err, "portal creation failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeUpstreamError, "Could not open billing portal", ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GetStatus handles GET /subscription/status.
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListPayments handles GET /subscription/payments.
func (h *SubscriptionHandler) ListPayments(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}
