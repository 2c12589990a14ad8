package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
)

func (s *Server) ListPricingTiers(c *gin.Context) {
	tiers, err := s.classSvc.ListTiers(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pricing_tiers": tiers})
}

func (s *Server) CreatePricingTier(c *gin.Context) {
	var req classdomain.TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tier, err := s.classSvc.CreateTier(c.Request.Context(), c.Param("id"), c.Param("classId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tier)
}

func (s *Server) UpdatePricingTier(c *gin.Context) {
	var req classdomain.TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tier, err := s.classSvc.UpdateTier(c.Request.Context(), c.Param("id"), c.Param("classId"), c.Param("tierId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tier)
}

func (s *Server) SetDefaultPricingTier(c *gin.Context) {
	if err := s.classSvc.SetDefaultTier(c.Request.Context(), c.Param("id"), c.Param("classId"), c.Param("tierId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DeletePricingTier(c *gin.Context) {
	if err := s.classSvc.DeleteTier(c.Request.Context(), c.Param("id"), c.Param("classId"), c.Param("tierId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
