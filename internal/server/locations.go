package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
)

func (s *Server) ListLocations(c *gin.Context) {
	locations, err := s.studioSvc.ListLocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (s *Server) CreateLocation(c *gin.Context) {
	var req studiodomain.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	location, err := s.studioSvc.CreateLocation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (s *Server) UpdateLocation(c *gin.Context) {
	var req studiodomain.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	location, err := s.studioSvc.UpdateLocation(c.Request.Context(), c.Param("id"), c.Param("locationId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

func (s *Server) DeleteLocation(c *gin.Context) {
	if err := s.studioSvc.DeleteLocation(c.Request.Context(), c.Param("id"), c.Param("locationId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
