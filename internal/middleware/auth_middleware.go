package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/pkg/utils"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ContextUserIDKey    = "userID"
	ContextSessionIDKey = "sessionID"
	ContextEmailKey     = "userEmail"
)

// AuthMiddleware validates the identity provider's bearer token and stashes
// the user id in the request context. Fails closed: any parse or validation
// problem is a 401, never a pass-through.
func AuthMiddleware(identitySecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header must be a bearer token", ""))
			return
		}

		claims, err := utils.ValidateIdentityToken(parts[1], identitySecret)
		if err != nil {
			utils.LogDebug("token rejected", map[string]interface{}{"reason": err.Error()})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", ""))
			return
		}

		c.Set(ContextUserIDKey, claims.UserID())
		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Set(ContextEmailKey, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user id from the request context. Empty
// only on routes that skipped AuthMiddleware, which is a wiring bug.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
