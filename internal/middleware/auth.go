package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/auth"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
)

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
)

// AuthMiddleware creates a middleware that validates bearer JWT tokens
func AuthMiddleware(tokens *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, auth.ErrMissingToken, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(c, auth.ErrInvalidToken, "Invalid authorization header format. Expected 'Bearer <token>'")
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			unauthorized(c, err, "Invalid or expired token")
			return
		}

		// Set user information in context for handlers to use
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)

		c.Next()
	}
}

// ActorFromContext returns the authenticated user of the request. The actor
// is empty when no AuthMiddleware ran, and the ledger rejects it.
func ActorFromContext(c *gin.Context) domain.Actor {
	return domain.Actor{UserID: c.GetString(ctxUserID)}
}

func unauthorized(c *gin.Context, err error, hint string) {
	_ = c.Error(ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrPermissionDenied))
	c.Abort()
}
