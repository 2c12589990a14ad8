package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	kilndomain "github.com/throwclay/throwclay/internal/kiln/domain"
)

func (s *Server) ListKilns(c *gin.Context) {
	kilns, err := s.kilnSvc.ListKilns(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kilns": kilns})
}

func (s *Server) CreateKiln(c *gin.Context) {
	var req kilndomain.KilnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	kiln, err := s.kilnSvc.CreateKiln(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, kiln)
}

func (s *Server) GetKiln(c *gin.Context) {
	kiln, err := s.kilnSvc.GetKiln(c.Request.Context(), c.Param("id"), c.Param("kilnId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, kiln)
}

func (s *Server) UpdateKiln(c *gin.Context) {
	var req kilndomain.KilnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	kiln, err := s.kilnSvc.UpdateKiln(c.Request.Context(), c.Param("id"), c.Param("kilnId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, kiln)
}

func (s *Server) DeleteKiln(c *gin.Context) {
	if err := s.kilnSvc.DeleteKiln(c.Request.Context(), c.Param("id"), c.Param("kilnId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
