package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Class struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	StudioID        snowflake.ID      `gorm:"index;not null" json:"studio_id"`
	LocationID      *snowflake.ID     `json:"location_id,omitempty"`
	InstructorID    *snowflake.ID     `json:"instructor_id,omitempty"`
	Title           string            `gorm:"not null" json:"title"`
	Summary         string            `json:"summary"`
	Description     string            `json:"description"`
	SkillLevel      string            `gorm:"default:all_levels" json:"skill_level"`
	Techniques      pq.StringArray    `gorm:"type:text[]" json:"techniques"`
	Capacity        int               `json:"capacity"`
	DurationMinutes int               `json:"duration_minutes"`
	Schedule        datatypes.JSONMap `gorm:"type:jsonb" json:"schedule"`
	Thumbnail       string            `json:"thumbnail,omitempty"`
	Status          string            `gorm:"not null;default:draft" json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (Class) TableName() string { return "classes" }

type ClassImage struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ClassID      snowflake.ID `gorm:"index;not null" json:"class_id"`
	URL          string       `gorm:"not null" json:"url"`
	ThumbnailURL string       `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	Caption      string       `json:"caption"`
	IsMain       bool         `gorm:"not null;default:false" json:"is_main"`
	Position     int          `json:"position"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (ClassImage) TableName() string { return "class_images" }

type PricingTier struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	ClassID          snowflake.ID `gorm:"index;not null" json:"class_id"`
	Name             string       `gorm:"not null" json:"name"`
	Description      string       `json:"description"`
	PriceCents       int64        `json:"price_cents"`
	Currency         string       `gorm:"default:USD" json:"currency"`
	SessionsIncluded int          `gorm:"default:1" json:"sessions_included"`
	IsDefault        bool         `gorm:"not null;default:false" json:"is_default"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (PricingTier) TableName() string { return "pricing_tiers" }

type WaitlistEntry struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ClassID   snowflake.ID `gorm:"uniqueIndex:uq_class_waitlist_user;not null" json:"class_id"`
	UserID    snowflake.ID `gorm:"uniqueIndex:uq_class_waitlist_user;not null" json:"user_id"`
	Note      string       `json:"note"`
	CreatedAt time.Time    `json:"created_at"`
}

func (WaitlistEntry) TableName() string { return "class_waitlist" }

// WaitlistRow joins a waitlist entry with the waiting user's profile.
type WaitlistRow struct {
	EntryID     snowflake.ID `json:"entry_id"`
	UserID      snowflake.ID `json:"user_id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	Note        string       `json:"note"`
	CreatedAt   time.Time    `json:"created_at"`
}
