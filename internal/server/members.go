package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
)

func (s *Server) ListMembers(c *gin.Context) {
	members, err := s.studioSvc.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) UpdateMemberRole(c *gin.Context) {
	var req studiodomain.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studioID := c.Param("id")
	memberID := c.Param("memberId")
	if err := s.studioSvc.UpdateMemberRole(c.Request.Context(), studioID, memberID, req); err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateMembership(studioID, memberID)
	c.Status(http.StatusNoContent)
}

func (s *Server) RemoveMember(c *gin.Context) {
	studioID := c.Param("id")
	memberID := c.Param("memberId")
	if err := s.studioSvc.RemoveMember(c.Request.Context(), studioID, memberID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.invalidateMembership(studioID, memberID)
	c.Status(http.StatusNoContent)
}

// invalidateMembership drops the cached membership so role changes take
// effect on the next request rather than after the cache TTL.
func (s *Server) invalidateMembership(studioID, userID string) {
	if s.membershipCache == nil {
		return
	}
	s.membershipCache.Invalidate(studioID, userID)
}
