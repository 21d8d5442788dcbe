package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/service"
)

// identityKey is the gin context key holding the resolved caller
// identity for the current request only.
const identityKey = "identity"

// AuthMiddleware creates middleware that authenticates requests: it
// extracts the bearer token, verifies it and re-resolves the caller's
// current role from the store before handlers run.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			abortAuthError(c, core.ErrTokenMissing)
			return
		}

		identity, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortAuthError(c, err)
			return
		}

		c.Set(identityKey, identity)

		c.Next()
	}
}

// RequireAdmin creates middleware enforcing the ADMIN role. It must
// run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abortAuthError(c, core.ErrTokenMissing)
			return
		}

		if err := core.Authorize(identity, core.AdminOnly()); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}

// abortAuthError maps an authentication failure to its response. Bad
// or absent credentials are the caller's problem; anything else is an
// infrastructure failure (a store outage is not an invalid token) and
// must surface as a server error so clients keep their credentials.
func abortAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrTokenMissing):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
	case errors.Is(err, core.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, core.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server error during authentication"})
	}
}

// IdentityFrom returns the identity attached to the request, if any.
func IdentityFrom(c *gin.Context) (core.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return core.Identity{}, false
	}
	identity, ok := v.(core.Identity)
	return identity, ok
}
