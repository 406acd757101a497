package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

// RequireFeature guards a route group behind a feature flag. Disabled
// features respond 404 so the surface looks absent rather than locked.
func RequireFeature(enabled bool, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			httputil.RespondWithError(c, apperrors.NotFound(name, nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
