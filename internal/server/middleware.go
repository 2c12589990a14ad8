package server

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"github.com/throwclay/throwclay/internal/studioctx"
)

const (
	contextUserIDKey     = "user_id"
	contextMembershipKey = "studio_membership"
)

// AuthRequired authenticates the bearer token and stores the caller's
// user id on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, session.UserID.String())
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	raw, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	value, ok := raw.(string)
	if !ok {
		return 0, false
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// StudioContext resolves the :id path parameter, loads the caller's
// membership, and injects the studio id into the request context.
// Membership lookups are cached briefly to keep hot routes off the
// database.
func (s *Server) StudioContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		studioID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
		if err != nil || studioID == 0 {
			AbortWithError(c, studiodomain.ErrStudioNotFound)
			return
		}

		userID, ok := s.userIDFromSession(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		membership, err := s.membershipFor(c, studioID, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if membership != nil {
			c.Set(contextMembershipKey, membership)
		}

		ctx := studioctx.WithStudioID(c.Request.Context(), int64(studioID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) membershipFor(c *gin.Context, studioID, userID snowflake.ID) (*studiodomain.StudioMembership, error) {
	if s.membershipCache != nil {
		if cached, ok := s.membershipCache.Get(studioID.String(), userID.String()); ok {
			return cached, nil
		}
	}

	membership, err := s.studioRepo.GetMembership(c.Request.Context(), studioID, userID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	if s.membershipCache != nil {
		s.membershipCache.Set(studioID.String(), userID.String(), membership)
	}
	return membership, nil
}

func membershipFromContext(c *gin.Context) *studiodomain.StudioMembership {
	raw, ok := c.Get(contextMembershipKey)
	if !ok {
		return nil
	}
	membership, ok := raw.(*studiodomain.StudioMembership)
	if !ok {
		return nil
	}
	return membership
}

// RequireStudioRole gates a route on the caller holding one of the
// given roles in the studio resolved by StudioContext.
func (s *Server) RequireStudioRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := membershipFromContext(c)
		if membership == nil || membership.Status != studiodomain.MembershipActive {
			AbortWithError(c, ErrForbidden)
			return
		}
		for _, role := range roles {
			if membership.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// RequireStudioMember admits any active member regardless of role.
func (s *Server) RequireStudioMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := membershipFromContext(c)
		if membership == nil || membership.Status != studiodomain.MembershipActive {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func setRetryAfter(c *gin.Context, wait time.Duration) {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
}

// LoginRateLimit throttles login attempts per client address.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}
		res, err := s.limiter.AllowLogin(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Redis being down should not lock everyone out.
			s.log.Warn("login rate limit check failed", zapError(err))
			c.Next()
			return
		}
		if !res.Allowed {
			setRetryAfter(c, res.RetryAfter)
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// InviteRateLimit throttles invite creation per studio.
func (s *Server) InviteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}
		studioID, ok := studioctx.StudioIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}
		res, err := s.limiter.AllowInvite(c.Request.Context(), studioID.String())
		if err != nil {
			s.log.Warn("invite rate limit check failed", zapError(err))
			c.Next()
			return
		}
		if !res.Allowed {
			setRetryAfter(c, res.RetryAfter)
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
