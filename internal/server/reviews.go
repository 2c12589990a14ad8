package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reviewdomain "github.com/throwclay/throwclay/internal/review/domain"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
)

func (s *Server) ListStudioReviews(c *gin.Context) {
	reviews, err := s.reviewSvc.ListStudioReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (s *Server) ListClassReviews(c *gin.Context) {
	reviews, err := s.reviewSvc.ListClassReviews(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (s *Server) CreateStudioReview(c *gin.Context) {
	s.createReview(c, "")
}

func (s *Server) CreateClassReview(c *gin.Context) {
	s.createReview(c, c.Param("classId"))
}

func (s *Server) createReview(c *gin.Context, classID string) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req reviewdomain.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if classID != "" {
		req.ClassID = classID
	}

	review, err := s.reviewSvc.Create(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (s *Server) UpdateReview(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req reviewdomain.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	review, err := s.reviewSvc.Update(c.Request.Context(), userID, c.Param("id"), c.Param("reviewId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (s *Server) DeleteReview(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.reviewSvc.Delete(c.Request.Context(), userID, c.Param("id"), c.Param("reviewId"), s.isReviewModerator(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// isReviewModerator reports whether the caller may remove another
// member's review. Owners and admins moderate; everyone else only
// deletes their own.
func (s *Server) isReviewModerator(c *gin.Context) bool {
	membership := membershipFromContext(c)
	if membership == nil || membership.Status != studiodomain.MembershipActive {
		return false
	}
	switch membership.Role {
	case studiodomain.RoleOwner, studiodomain.RoleAdmin:
		return true
	}
	return false
}
