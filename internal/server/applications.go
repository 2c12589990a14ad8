package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	invitedomain "github.com/throwclay/throwclay/internal/invite/domain"
)

func (s *Server) ListApplications(c *gin.Context) {
	applications, err := s.inviteSvc.ListApplications(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

func (s *Server) Apply(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	// The message is optional, so an empty body is fine.
	var req invitedomain.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	application, err := s.inviteSvc.Apply(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, application)
}

func (s *Server) ApproveApplication(c *gin.Context) {
	s.decideApplication(c, true)
}

func (s *Server) RejectApplication(c *gin.Context) {
	s.decideApplication(c, false)
}

func (s *Server) decideApplication(c *gin.Context, approve bool) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	err := s.inviteSvc.DecideApplication(c.Request.Context(), userID, c.Param("id"), c.Param("applicationId"), invitedomain.DecideApplicationRequest{
		Approve: approve,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
