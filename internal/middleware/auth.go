package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-api/internal/authz"
	"github.com/yukikurage/issue-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
)

// TokenParser resolves an access token to the principal it was issued for
type TokenParser interface {
	Parse(token string) (authz.Principal, error)
}

// RequireAuth checks the Bearer access token and stores the principal in
// the context
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			apierrors.Unauthorized(c, "Missing bearer token")
			c.Abort()
			return
		}

		principal, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			apierrors.Unauthorized(c, apierrors.MessageOf(err))
			c.Abort()
			return
		}

		// Store principal and user ID in context for easy access in handlers
		c.Set(constants.ContextKeyPrincipal, principal)
		c.Set(constants.ContextKeyUserID, principal.UserID)
		c.Next()
	}
}

// GetPrincipal retrieves the current principal from context. An anonymous
// principal is returned when none was set.
func GetPrincipal(c *gin.Context) authz.Principal {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return authz.Principal{}
	}
	p, _ := v.(authz.Principal)
	return p
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
