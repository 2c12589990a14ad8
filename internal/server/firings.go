package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	kilndomain "github.com/throwclay/throwclay/internal/kiln/domain"
)

type UpdateFiringRequest struct {
	Status string `json:"status"`
}

func (s *Server) ListFirings(c *gin.Context) {
	firings, err := s.kilnSvc.ListFirings(c.Request.Context(), c.Param("id"), c.Param("kilnId"), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"firings": firings})
}

func (s *Server) GetFiring(c *gin.Context) {
	firing, err := s.kilnSvc.GetFiring(c.Request.Context(), c.Param("id"), c.Param("kilnId"), c.Param("firingId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, firing)
}

func (s *Server) ScheduleFiring(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req kilndomain.FiringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	firing, err := s.kilnSvc.ScheduleFiring(c.Request.Context(), userID, c.Param("id"), c.Param("kilnId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, firing)
}

func (s *Server) UpdateFiringStatus(c *gin.Context) {
	var req UpdateFiringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		AbortWithError(c, newValidationError("status", "required", "status is required"))
		return
	}

	if err := s.kilnSvc.UpdateFiringStatus(c.Request.Context(), c.Param("id"), c.Param("kilnId"), c.Param("firingId"), status); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
