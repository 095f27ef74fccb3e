package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/shared/auth"
	"filevault-backend/internal/shared/server/respond"
)

const (
	identityKey = "identity"
	userIDKey   = "userId"
)

// Auth validates bearer tokens and stores the caller identity in context.
// Routes registered outside the authed group (the public link path, health,
// metrics) never see this middleware.
func Auth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		ident, err := verifier.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(identityKey, ident)
		c.Set(userIDKey, ident.UserID)
		c.Next()
	}
}

// IdentityFromContext fetches the identity set by the auth middleware.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	if c == nil {
		return auth.Identity{}, false
	}
	val, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	ident, ok := val.(auth.Identity)
	return ident, ok
}
