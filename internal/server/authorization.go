package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/throwclay/throwclay/internal/studioctx"
)

// authorizeStudioAction gates a route on the casbin policy for the
// studio resolved by StudioContext. The caller's role comes from their
// membership row; denials are audited by the authorization service.
func (s *Server) authorizeStudioAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.userIDFromSession(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		studioID, ok := studioctx.StudioIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrForbidden)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}

		subject := fmt.Sprintf("user:%s", userID.String())
		err := s.authzSvc.Authorize(c.Request.Context(), subject, studioID.String(), strings.TrimSpace(object), strings.TrimSpace(action))
		if err != nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
