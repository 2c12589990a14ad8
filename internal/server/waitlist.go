package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type JoinWaitlistRequest struct {
	Note string `json:"note"`
}

func (s *Server) ListWaitlist(c *gin.Context) {
	entries, err := s.classSvc.ListWaitlist(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"waitlist": entries})
}

func (s *Server) JoinWaitlist(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	// The note is optional, so an empty body is fine.
	var req JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.classSvc.JoinWaitlist(c.Request.Context(), userID, c.Param("id"), c.Param("classId"), req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) LeaveWaitlist(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.classSvc.LeaveWaitlist(c.Request.Context(), userID, c.Param("id"), c.Param("classId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
