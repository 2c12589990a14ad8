package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invitedomain "github.com/throwclay/throwclay/internal/invite/domain"
)

type AcceptInviteRequest struct {
	Token string `json:"token"`
}

func (s *Server) ListInvites(c *gin.Context) {
	invites, err := s.inviteSvc.ListInvites(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (s *Server) CreateInvite(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req invitedomain.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invite, err := s.inviteSvc.CreateInvite(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invite)
}

func (s *Server) RevokeInvite(c *gin.Context) {
	if err := s.inviteSvc.RevokeInvite(c.Request.Context(), c.Param("id"), c.Param("inviteId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) AcceptInvite(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	result, err := s.inviteSvc.AcceptInvite(c.Request.Context(), userID, token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"studio_id":     result.StudioID,
		"membership_id": result.MembershipID,
		"role":          result.Role,
	})
}

func (s *Server) RejectInvite(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	if err := s.inviteSvc.RejectInvite(c.Request.Context(), userID, token); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
