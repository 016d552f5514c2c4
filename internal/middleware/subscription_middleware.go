package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/services"
	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// WarningHeader carries non-blocking subscription warnings (trial ending,
// cancellation scheduled) on otherwise allowed responses.
const WarningHeader = "X-Subscription-Warning"

// RequireActiveSubscription gates feature routes behind the subscription
// state. A blocked user is redirected to plan selection with the denial
// reason in the query string so the page can explain itself. Evaluation
// errors fail closed with a 500 rather than letting the request through.
func RequireActiveSubscription(subscriptionService services.SubscriptionService, planSelectionURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", ""))
			return
		}

		decision, err := subscriptionService.CheckAccess(c.Request.Context(), userID)
		if err != nil {
			utils.LogError(err, "subscription access check failed")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Could not verify subscription", ""))
			return
		}

		if !decision.Allowed {
			c.Redirect(http.StatusSeeOther, planSelectionURL+"?reason="+decision.Reason)
			c.Abort()
			return
		}

		if decision.Warning != "" {
			c.Header(WarningHeader, decision.Warning)
		}
		c.Next()
	}
}
