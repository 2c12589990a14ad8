package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, review Review) error
	Get(ctx context.Context, studioID, reviewID snowflake.ID) (*Review, error)
	ListByStudio(ctx context.Context, studioID snowflake.ID) ([]ReviewListItem, error)
	ListByClass(ctx context.Context, classID snowflake.ID) ([]ReviewListItem, error)
	RatingSummary(ctx context.Context, studioID snowflake.ID, classID *snowflake.ID) (*RatingSummary, error)
	Update(ctx context.Context, reviewID snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, studioID, reviewID snowflake.ID) error
}

type Service interface {
	Create(ctx context.Context, authorID snowflake.ID, studioID string, req CreateReviewRequest) (*Review, error)
	ListStudioReviews(ctx context.Context, studioID string) (*ReviewListResponse, error)
	ListClassReviews(ctx context.Context, studioID, classID string) (*ReviewListResponse, error)
	Update(ctx context.Context, authorID snowflake.ID, studioID, reviewID string, req UpdateReviewRequest) (*Review, error)
	Delete(ctx context.Context, actorID snowflake.ID, studioID, reviewID string, moderator bool) error
}

type CreateReviewRequest struct {
	ClassID string `json:"class_id,omitempty"`
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

type UpdateReviewRequest struct {
	Rating *int    `json:"rating,omitempty"`
	Title  *string `json:"title,omitempty"`
	Body   *string `json:"body,omitempty"`
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

type ReviewListResponse struct {
	Reviews []ReviewListItem `json:"reviews"`
	Summary RatingSummary    `json:"summary"`
}

var (
	ErrInvalidStudio   = errors.New("invalid_studio")
	ErrInvalidClass    = errors.New("invalid_class")
	ErrInvalidReview   = errors.New("invalid_review")
	ErrInvalidRating   = errors.New("invalid_rating")
	ErrNotMember       = errors.New("not_a_member")
	ErrNotAuthor       = errors.New("not_review_author")
	ErrAlreadyReviewed = errors.New("already_reviewed")
	ErrReviewNotFound  = errors.New("review_not_found")
)
