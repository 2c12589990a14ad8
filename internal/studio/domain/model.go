package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Studio struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"not null" json:"name"`
	Slug         string            `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string            `json:"description"`
	WebsiteURL   string            `gorm:"column:website_url" json:"website_url"`
	LogoURL      string            `gorm:"column:logo_url" json:"logo_url"`
	ContactEmail string            `json:"contact_email"`
	Settings     datatypes.JSONMap `gorm:"type:jsonb" json:"settings"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (Studio) TableName() string { return "studios" }

type StudioLocation struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	StudioID     snowflake.ID `gorm:"index;not null" json:"studio_id"`
	Label        string       `json:"label"`
	AddressLine1 string       `gorm:"column:address_line1" json:"address_line1"`
	AddressLine2 string       `gorm:"column:address_line2" json:"address_line2"`
	City         string       `json:"city"`
	Region       string       `json:"region"`
	PostalCode   string       `json:"postal_code"`
	Country      string       `json:"country"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (StudioLocation) TableName() string { return "studio_locations" }

type StudioMembership struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudioID       snowflake.ID  `gorm:"uniqueIndex:uq_studio_memberships_member;not null" json:"studio_id"`
	UserID         snowflake.ID  `gorm:"uniqueIndex:uq_studio_memberships_member;index;not null" json:"user_id"`
	LocationID     *snowflake.ID `gorm:"uniqueIndex:uq_studio_memberships_member" json:"location_id,omitempty"`
	Role           string        `gorm:"not null" json:"role"`
	Status         string        `gorm:"not null;default:active" json:"status"`
	MembershipType string        `gorm:"not null;default:''" json:"membership_type,omitempty"`
	Title          string        `json:"title"`
	JoinedAt       time.Time     `json:"joined_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (StudioMembership) TableName() string { return "studio_memberships" }

// MemberListItem joins a membership row with the member's profile fields.
type MemberListItem struct {
	MembershipID   snowflake.ID  `json:"membership_id"`
	UserID         snowflake.ID  `json:"user_id"`
	Email          string        `json:"email"`
	DisplayName    string        `json:"display_name"`
	Role           string        `json:"role"`
	Status         string        `json:"status"`
	LocationID     *snowflake.ID `json:"location_id,omitempty"`
	MembershipType string        `json:"membership_type,omitempty"`
	Title          string        `json:"title"`
	JoinedAt       time.Time     `json:"joined_at"`
}

type StudioListItem struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Role      string       `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
}
