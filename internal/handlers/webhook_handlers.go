package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/billing"
	"github.com/marjanov802/resellingtracker-sub000/internal/services"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// WebhookHandler receives billing provider deliveries.
type WebhookHandler struct {
	service services.SubscriptionService
	secret  string
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service services.SubscriptionService, secret string) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret}
}

// HandleBillingWebhook handles POST /webhooks/billing. Only a signature
// failure produces a non-2xx response; every other problem is logged and
// acknowledged, because a 5xx would make the provider redeliver an event we
// can never process.
func (h *WebhookHandler) HandleBillingWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	signature := c.GetHeader(billing.SignatureHeader)
	timestamp, _ := strconv.ParseInt(c.GetHeader(billing.TimestampHeader), 10, 64)
	if err := billing.VerifySignature(h.secret, payload, signature, timestamp, billing.DefaultSignatureMaxAge); err != nil {
		utils.LogWarn("webhook signature rejected", map[string]interface{}{"reason": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	event, err := billing.ParseEvent(payload)
	if err != nil {
		utils.LogWarn("unparseable webhook payload acknowledged", map[string]interface{}{"reason": err.Error()})
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.service.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		utils.LogError(err, "webhook event processing failed: "+event.Type)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
