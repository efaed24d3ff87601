package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
)

// RequireMinRole applies the minimum-role table for resource and op before
// the handler runs. Services check again; this only rejects early.
func RequireMinRole(m *metrics.Metrics, resource authz.Resource, op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := authz.CoarseCheck(GetPrincipal(c), resource, op)
		if !d.Allowed {
			m.ObserveDenial(string(resource)+"."+string(op), d.Reason)
			apierrors.Respond(c, d.Err())
			c.Abort()
			return
		}
		c.Next()
	}
}
