package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type StudioInvite struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudioID       snowflake.ID  `gorm:"index;not null" json:"studio_id"`
	Email          string        `gorm:"not null" json:"email"`
	Role           string        `gorm:"not null" json:"role"`
	LocationID     *snowflake.ID `json:"location_id,omitempty"`
	MembershipType string        `gorm:"not null;default:''" json:"membership_type,omitempty"`
	Token          string        `gorm:"uniqueIndex;not null" json:"-"`
	Status         string        `gorm:"not null;default:pending" json:"status"`
	InvitedBy      *snowflake.ID `json:"invited_by,omitempty"`
	Note           string        `json:"note"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
	AcceptedBy     *snowflake.ID `json:"accepted_by,omitempty"`
	AcceptedAt     *time.Time    `json:"accepted_at,omitempty"`
	RevokedAt      *time.Time    `json:"revoked_at,omitempty"`
	RejectedAt     *time.Time    `json:"rejected_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (StudioInvite) TableName() string { return "studio_invites" }

type MembershipApplication struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudioID       snowflake.ID  `gorm:"index;not null" json:"studio_id"`
	UserID         snowflake.ID  `gorm:"index;not null" json:"user_id"`
	LocationID     *snowflake.ID `json:"location_id,omitempty"`
	MembershipType string        `gorm:"not null;default:''" json:"membership_type,omitempty"`
	Message        string        `json:"message"`
	Status         string        `gorm:"not null;default:pending" json:"status"`
	DecidedBy      *snowflake.ID `json:"decided_by,omitempty"`
	DecidedAt      *time.Time    `json:"decided_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (MembershipApplication) TableName() string { return "membership_applications" }
