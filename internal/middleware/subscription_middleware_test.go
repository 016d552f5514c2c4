package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/marjanov802/resellingtracker-sub000/internal/services"
)

type stubGate struct {
	services.SubscriptionService
	decision services.AccessDecision
	err      error
}

func (s *stubGate) CheckAccess(_ context.Context, _ string) (services.AccessDecision, error) {
	return s.decision, s.err
}

func gateRequest(t *testing.T, gate services.SubscriptionService, userID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/protected",
		func(c *gin.Context) {
			if userID != "" {
				c.Set(ContextUserIDKey, userID)
			}
		},
		RequireActiveSubscription(gate, "http://app.test/plans"),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	return rec
}

func TestRequireActiveSubscription(t *testing.T) {
	t.Run("allowed passes through", func(t *testing.T) {
		rec := gateRequest(t, &stubGate{decision: services.AccessDecision{Allowed: true}}, "user-1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(WarningHeader))
	})

	t.Run("warning set on allowed response", func(t *testing.T) {
		rec := gateRequest(t, &stubGate{decision: services.AccessDecision{
			Allowed: true, Warning: services.WarningTrialEnding,
		}}, "user-1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, services.WarningTrialEnding, rec.Header().Get(WarningHeader))
	})

	t.Run("blocked redirects with reason", func(t *testing.T) {
		rec := gateRequest(t, &stubGate{decision: services.AccessDecision{
			Reason: services.ReasonTrialExpired,
		}}, "user-1")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "http://app.test/plans?reason=trial_expired", rec.Header().Get("Location"))
	})

	t.Run("missing user fails closed", func(t *testing.T) {
		rec := gateRequest(t, &stubGate{decision: services.AccessDecision{Allowed: true}}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("check error fails closed", func(t *testing.T) {
		rec := gateRequest(t, &stubGate{err: assert.AnError}, "user-1")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
