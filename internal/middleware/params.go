package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
)

const paramIDKey = "param_id"

// RequireID parses the :id path parameter as a positive integer and stores
// it for ParamID. Malformed IDs never reach the data layer.
func RequireID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ParseID(c.Param("id"))
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}
		c.Set(paramIDKey, id)
		c.Next()
	}
}

// ParamID returns the ID stored by RequireID
func ParamID(c *gin.Context) uint64 {
	return c.GetUint64(paramIDKey)
}

// ParseID parses a positive resource identifier
func ParseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apierrors.New(apierrors.KindBadRequest, "id must be a positive integer")
	}
	return id, nil
}
