package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"shareplace_backend/internal/auth"
	"shareplace_backend/internal/logger"
	"shareplace_backend/pkg/apperrors"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// AuthMiddleware rejects requests without a valid bearer token before any
// handler runs.
func AuthMiddleware(verifier auth.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// CORS preflight carries no credentials
		if c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			apperrors.HandleError(c, apperrors.NewUnauthenticatedError("Authorization header missing or invalid"))
			return
		}

		identity, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			apperrors.HandleError(c, apperrors.NewUnauthenticatedError("Authentication failed"))
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextEmail, identity.Email)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), identity.UserID))
		c.Next()
	}
}

// GetUserID returns the authenticated user id or "".
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
