package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
)

func (s *Server) ListStudios(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	studios, err := s.studioSvc.ListStudiosByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"studios": studios})
}

func (s *Server) CreateStudio(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req studiodomain.CreateStudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studio, err := s.studioSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, studio)
}

func (s *Server) GetStudio(c *gin.Context) {
	studio, err := s.studioSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, studio)
}

func (s *Server) UpdateStudio(c *gin.Context) {
	var req studiodomain.UpdateStudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studio, err := s.studioSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, studio)
}

func (s *Server) DeleteStudio(c *gin.Context) {
	if err := s.studioSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
