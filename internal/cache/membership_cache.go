package cache

import (
	"strings"
	"time"

	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
)

const defaultMembershipTTL = 30 * time.Second

// MembershipCache keeps recent membership lookups off the hot request path.
// Entries are short-lived so role changes propagate quickly.
type MembershipCache interface {
	Get(studioID, userID string) (*studiodomain.StudioMembership, bool)
	Set(studioID, userID string, member *studiodomain.StudioMembership)
	Invalidate(studioID, userID string)
}

type membershipCache struct {
	entries Cache[string, *studiodomain.StudioMembership]
	ttl     time.Duration
}

func NewMembershipCache() MembershipCache {
	return &membershipCache{
		entries: NewTTLCache[string, *studiodomain.StudioMembership](),
		ttl:     defaultMembershipTTL,
	}
}

func (c *membershipCache) Get(studioID, userID string) (*studiodomain.StudioMembership, bool) {
	return c.entries.Get(cacheKey(studioID, userID))
}

func (c *membershipCache) Set(studioID, userID string, member *studiodomain.StudioMembership) {
	if member == nil {
		return
	}
	c.entries.Set(cacheKey(studioID, userID), member, c.ttl)
}

func (c *membershipCache) Invalidate(studioID, userID string) {
	c.entries.Delete(cacheKey(studioID, userID))
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
