package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
)

func (s *Server) ListClasses(c *gin.Context) {
	classes, err := s.classSvc.List(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (s *Server) CreateClass(c *gin.Context) {
	var req classdomain.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	class, err := s.classSvc.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (s *Server) GetClass(c *gin.Context) {
	class, err := s.classSvc.Get(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (s *Server) UpdateClass(c *gin.Context) {
	var req classdomain.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	class, err := s.classSvc.Update(c.Request.Context(), c.Param("id"), c.Param("classId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (s *Server) DeleteClass(c *gin.Context) {
	if err := s.classSvc.Delete(c.Request.Context(), c.Param("id"), c.Param("classId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportRoster streams the class roster as a PDF download.
func (s *Server) ExportRoster(c *gin.Context) {
	studioID := c.Param("id")
	reader, err := s.classSvc.ExportRoster(c.Request.Context(), studioID, c.Param("classId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordRosterExport(c.Request.Context(), studioID)
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="roster.pdf"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		s.log.Warn("roster download interrupted", zapError(err))
	}
}
