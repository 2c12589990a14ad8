package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

const (
	SkillAllLevels    = "all_levels"
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

func ValidSkillLevel(level string) bool {
	switch level {
	case SkillAllLevels, SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	}
	return false
}

type Service interface {
	Create(ctx context.Context, studioID string, req CreateClassRequest) (*ClassResponse, error)
	Get(ctx context.Context, studioID, classID string) (*ClassDetailResponse, error)
	List(ctx context.Context, studioID, status string) ([]ClassResponse, error)
	Update(ctx context.Context, studioID, classID string, req UpdateClassRequest) (*ClassResponse, error)
	Delete(ctx context.Context, studioID, classID string) error

	AddImage(ctx context.Context, studioID, classID string, req ImageRequest) (*ClassImage, error)
	ListImages(ctx context.Context, studioID, classID string) ([]ClassImage, error)
	SetMainImage(ctx context.Context, studioID, classID, imageID string) error
	DeleteImage(ctx context.Context, studioID, classID, imageID string) error

	CreateTier(ctx context.Context, studioID, classID string, req TierRequest) (*PricingTier, error)
	ListTiers(ctx context.Context, studioID, classID string) ([]PricingTier, error)
	UpdateTier(ctx context.Context, studioID, classID, tierID string, req TierRequest) (*PricingTier, error)
	SetDefaultTier(ctx context.Context, studioID, classID, tierID string) error
	DeleteTier(ctx context.Context, studioID, classID, tierID string) error

	JoinWaitlist(ctx context.Context, userID snowflake.ID, studioID, classID string, note string) (*WaitlistEntry, error)
	LeaveWaitlist(ctx context.Context, userID snowflake.ID, studioID, classID string) error
	ListWaitlist(ctx context.Context, studioID, classID string) ([]WaitlistRow, error)

	ExportRoster(ctx context.Context, studioID, classID string) (io.Reader, error)
}

type CreateClassRequest struct {
	Title           string         `json:"title"`
	Summary         string         `json:"summary"`
	Description     string         `json:"description"`
	SkillLevel      string         `json:"skill_level"`
	Techniques      []string       `json:"techniques"`
	Capacity        int            `json:"capacity"`
	DurationMinutes int            `json:"duration_minutes"`
	Schedule        map[string]any `json:"schedule"`
	LocationID      string         `json:"location_id"`
	InstructorID    string         `json:"instructor_id"`
}

type UpdateClassRequest struct {
	Title           *string        `json:"title"`
	Summary         *string        `json:"summary"`
	Description     *string        `json:"description"`
	SkillLevel      *string        `json:"skill_level"`
	Techniques      []string       `json:"techniques"`
	Capacity        *int           `json:"capacity"`
	DurationMinutes *int           `json:"duration_minutes"`
	Schedule        map[string]any `json:"schedule"`
	Status          *string        `json:"status"`
	LocationID      *string        `json:"location_id"`
	InstructorID    *string        `json:"instructor_id"`
}

type ImageRequest struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Caption      string `json:"caption"`
	Position     int    `json:"position"`
}

type TierRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	PriceCents       int64  `json:"price_cents"`
	Currency         string `json:"currency"`
	SessionsIncluded int    `json:"sessions_included"`
}

type ClassResponse struct {
	ID              string         `json:"id"`
	StudioID        string         `json:"studio_id"`
	LocationID      string         `json:"location_id,omitempty"`
	InstructorID    string         `json:"instructor_id,omitempty"`
	Title           string         `json:"title"`
	Summary         string         `json:"summary"`
	Description     string         `json:"description"`
	SkillLevel      string         `json:"skill_level"`
	Techniques      []string       `json:"techniques"`
	Capacity        int            `json:"capacity"`
	DurationMinutes int            `json:"duration_minutes"`
	Schedule        map[string]any `json:"schedule"`
	Thumbnail       string         `json:"thumbnail,omitempty"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type ClassDetailResponse struct {
	ClassResponse
	Images []ClassImage  `json:"images"`
	Tiers  []PricingTier `json:"pricing_tiers"`
}

var (
	ErrInvalidStudio       = errors.New("invalid_studio")
	ErrInvalidClass        = errors.New("invalid_class")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidSkillLevel   = errors.New("invalid_skill_level")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidImage        = errors.New("invalid_image")
	ErrInvalidTier         = errors.New("invalid_tier")
	ErrClassNotFound       = errors.New("class_not_found")
	ErrImageNotFound       = errors.New("image_not_found")
	ErrTierNotFound        = errors.New("tier_not_found")
	ErrClassLimit          = errors.New("active_class_limit_reached")
	ErrImageLimit          = errors.New("image_limit_reached")
	ErrTierLimit           = errors.New("pricing_tier_limit_reached")
	ErrClassNotPublished   = errors.New("class_not_published")
	ErrAlreadyOnWaitlist   = errors.New("already_on_waitlist")
	ErrWaitlistNotFound    = errors.New("waitlist_entry_not_found")
	ErrRosterNotAvailable  = errors.New("roster_not_available")
)
