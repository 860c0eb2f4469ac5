package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middleware below.
const (
	ContextUserID  = "user_id"
	ContextIsAdmin = "is_admin"
)

func claimsFromHeader(c *gin.Context, issuer *TokenIssuer) (*Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil, false
	}
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromHeader(c, issuer)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and
// continues anonymously otherwise. Reads are valid for anonymous
// callers.
func OptionalAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := claimsFromHeader(c, issuer); ok {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextIsAdmin, claims.IsAdmin)
		}
		c.Next()
	}
}

// CallerID returns the authenticated user id, or 0 and false for an
// anonymous caller.
func CallerID(c *gin.Context) (int, bool) {
	raw, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int)
	if !ok {
		return 0, false
	}
	return id, true
}

// CallerIsAdmin reports whether the caller has the admin capability.
func CallerIsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextIsAdmin)
}
