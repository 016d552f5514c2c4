package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/services"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// rateAttributionHTML is the provider-required attribution snippet, served
// alongside the rates so clients can render it verbatim.
const rateAttributionHTML = `<a href="https://www.exchangerate-api.com">Rates By Exchange Rate API</a>`

// FXHandler serves the cached exchange-rate table.
type FXHandler struct {
	rates services.RateSource
}

// NewFXHandler creates a new FXHandler.
func NewFXHandler(rates services.RateSource) *FXHandler {
	return &FXHandler{rates: rates}
}

// GetRates handles GET /fx. Only base USD is supported; the cache holds a
// single USD-based table and cross rates are derived client-side or by the
// conversion endpoints.
func (h *FXHandler) GetRates(c *gin.Context) {
	base := strings.ToUpper(c.DefaultQuery("base", "USD"))
	if base != "USD" {
		utils.RespondValidationFailed(c, "only base=USD is supported")
		return
	}

	snap, cached, err := h.rates.GetRates(c.Request.Context())
	if err != nil {
		utils.LogError(err, "rate fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "exchange rates unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"base":            snap.Base,
		"rates":           snap.Rates,
		"cached":          cached,
		"nextUpdateUtc":   snap.NextUpdateUTC,
		"attributionHtml": rateAttributionHTML,
	})
}
