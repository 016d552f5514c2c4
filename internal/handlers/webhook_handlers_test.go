package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marjanov802/resellingtracker-sub000/internal/billing"
	"github.com/marjanov802/resellingtracker-sub000/internal/services"
)

type stubSubscriptionService struct {
	services.SubscriptionService
	handled []*billing.Event
	err     error
}

func (s *stubSubscriptionService) HandleWebhookEvent(_ context.Context, event *billing.Event) error {
	s.handled = append(s.handled, event)
	return s.err
}

func webhookRouter(service services.SubscriptionService, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/billing/webhook", NewWebhookHandler(service, secret).HandleBillingWebhook)
	return engine
}

func deliver(t *testing.T, engine *gin.Engine, payload []byte, secret string, timestamp int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(payload))
	if secret != "" {
		req.Header.Set(billing.SignatureHeader, billing.SignPayload(secret, payload, timestamp))
		req.Header.Set(billing.TimestampHeader, strconv.FormatInt(timestamp, 10))
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandler(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{"customer":"cus_1","subscription":"sub_1"}}}`)

	t.Run("valid delivery is processed and acknowledged", func(t *testing.T) {
		service := &stubSubscriptionService{}
		engine := webhookRouter(service, secret)

		rec := deliver(t, engine, payload, secret, time.Now().Unix())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
		require.Len(t, service.handled, 1)
		assert.Equal(t, billing.EventInvoiceFailed, service.handled[0].Type)
	})

	t.Run("bad signature rejected with 400", func(t *testing.T) {
		service := &stubSubscriptionService{}
		engine := webhookRouter(service, secret)

		rec := deliver(t, engine, payload, "wrong-secret", time.Now().Unix())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid signature"}`, rec.Body.String())
		assert.Empty(t, service.handled)
	})

	t.Run("missing signature rejected with 400", func(t *testing.T) {
		service := &stubSubscriptionService{}
		engine := webhookRouter(service, secret)

		rec := deliver(t, engine, payload, "", 0)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, service.handled)
	})

	t.Run("stale timestamp rejected", func(t *testing.T) {
		service := &stubSubscriptionService{}
		engine := webhookRouter(service, secret)

		rec := deliver(t, engine, payload, secret, time.Now().Add(-time.Hour).Unix())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unparseable payload still acknowledged", func(t *testing.T) {
		service := &stubSubscriptionService{}
		engine := webhookRouter(service, secret)

		rec := deliver(t, engine, []byte(`not json`), secret, time.Now().Unix())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
		assert.Empty(t, service.handled)
	})

	t.Run("processing failure is swallowed and acknowledged", func(t *testing.T) {
		service := &stubSubscriptionService{err: assert.AnError}
		engine := webhookRouter(service, secret)

		rec := deliver(t, engine, payload, secret, time.Now().Unix())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	})
}
