package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
	invitedomain "github.com/throwclay/throwclay/internal/invite/domain"
	kilndomain "github.com/throwclay/throwclay/internal/kiln/domain"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"github.com/throwclay/throwclay/internal/studioctx"
)

type StudioDashboardResponse struct {
	ActiveMembers       int64   `json:"active_members"`
	PublishedClasses    int64   `json:"published_classes"`
	DraftClasses        int64   `json:"draft_classes"`
	PendingInvites      int64   `json:"pending_invites"`
	PendingApplications int64   `json:"pending_applications"`
	Kilns               int64   `json:"kilns"`
	UpcomingFirings     int64   `json:"upcoming_firings"`
	ReviewCount         int64   `json:"review_count"`
	AverageRating       float64 `json:"average_rating"`
}

// StudioDashboard aggregates headline counts for the studio overview
// page in a handful of indexed count queries.
func (s *Server) StudioDashboard(c *gin.Context) {
	studioID, ok := studioctx.StudioIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	ctx := c.Request.Context()
	var resp StudioDashboardResponse

	if err := s.db.WithContext(ctx).Model(&studiodomain.StudioMembership{}).
		Where("studio_id = ? AND status = ?", studioID, studiodomain.MembershipActive).
		Count(&resp.ActiveMembers).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.db.WithContext(ctx).Model(&classdomain.Class{}).
		Where("studio_id = ? AND status = ?", studioID, classdomain.StatusPublished).
		Count(&resp.PublishedClasses).Error; err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.db.WithContext(ctx).Model(&classdomain.Class{}).
		Where("studio_id = ? AND status = ?", studioID, classdomain.StatusDraft).
		Count(&resp.DraftClasses).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.db.WithContext(ctx).Model(&invitedomain.StudioInvite{}).
		Where("studio_id = ? AND status = ?", studioID, invitedomain.StatusPending).
		Count(&resp.PendingInvites).Error; err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.db.WithContext(ctx).Model(&invitedomain.MembershipApplication{}).
		Where("studio_id = ? AND status = ?", studioID, invitedomain.ApplicationPending).
		Count(&resp.PendingApplications).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.db.WithContext(ctx).Model(&kilndomain.Kiln{}).
		Where("studio_id = ?", studioID).
		Count(&resp.Kilns).Error; err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.countUpcomingFirings(c, studioID, &resp.UpcomingFirings); err != nil {
		AbortWithError(c, err)
		return
	}

	var rating struct {
		Average float64 `gorm:"column:average"`
		Count   int64   `gorm:"column:count"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count
		 FROM reviews
		 WHERE studio_id = ?`,
		studioID,
	).Scan(&rating).Error; err != nil {
		AbortWithError(c, err)
		return
	}
	resp.ReviewCount = rating.Count
	resp.AverageRating = rating.Average

	c.JSON(http.StatusOK, resp)
}

func (s *Server) countUpcomingFirings(c *gin.Context, studioID snowflake.ID, out *int64) error {
	return s.db.WithContext(c.Request.Context()).Raw(
		`SELECT COUNT(*)
		 FROM kiln_firings f
		 JOIN kilns k ON k.id = f.kiln_id
		 WHERE k.studio_id = ? AND f.status = ? AND f.starts_at > ?`,
		studioID,
		kilndomain.FiringScheduled,
		time.Now().UTC(),
	).Scan(out).Error
}
