package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
)

func (s *Server) ListClassImages(c *gin.Context) {
	images, err := s.classSvc.ListImages(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (s *Server) AddClassImage(c *gin.Context) {
	var req classdomain.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	image, err := s.classSvc.AddImage(c.Request.Context(), c.Param("id"), c.Param("classId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}

func (s *Server) SetMainClassImage(c *gin.Context) {
	if err := s.classSvc.SetMainImage(c.Request.Context(), c.Param("id"), c.Param("classId"), c.Param("imageId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteClassImage(c *gin.Context) {
	if err := s.classSvc.DeleteImage(c.Request.Context(), c.Param("id"), c.Param("classId"), c.Param("imageId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
