package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleInstructor = "instructor"
	RoleEmployee   = "employee"
	RoleMember     = "member"
)

const (
	MembershipActive    = "active"
	MembershipSuspended = "suspended"
	MembershipInactive  = "inactive"
)

// ValidRole reports whether role is one of the assignable studio roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleManager, RoleInstructor, RoleEmployee, RoleMember:
		return true
	}
	return false
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateStudioRequest) (*StudioResponse, error)
	GetByID(ctx context.Context, id string) (*StudioResponse, error)
	GetBySlug(ctx context.Context, slug string) (*StudioResponse, error)
	Update(ctx context.Context, id string, req UpdateStudioRequest) (*StudioResponse, error)
	Delete(ctx context.Context, id string) error
	ListStudiosByUser(ctx context.Context, userID snowflake.ID) ([]StudioListResponseItem, error)

	CreateLocation(ctx context.Context, studioID string, req LocationRequest) (*StudioLocation, error)
	ListLocations(ctx context.Context, studioID string) ([]StudioLocation, error)
	UpdateLocation(ctx context.Context, studioID, locationID string, req LocationRequest) (*StudioLocation, error)
	DeleteLocation(ctx context.Context, studioID, locationID string) error

	ListMembers(ctx context.Context, studioID string) ([]MemberListItem, error)
	UpdateMemberRole(ctx context.Context, studioID, userID string, req UpdateMemberRequest) error
	RemoveMember(ctx context.Context, studioID, userID string) error
}

type CreateStudioRequest struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	WebsiteURL   string         `json:"website_url"`
	ContactEmail string         `json:"contact_email"`
	Settings     map[string]any `json:"settings"`
}

type UpdateStudioRequest struct {
	Name         *string        `json:"name"`
	Description  *string        `json:"description"`
	WebsiteURL   *string        `json:"website_url"`
	LogoURL      *string        `json:"logo_url"`
	ContactEmail *string        `json:"contact_email"`
	Settings     map[string]any `json:"settings"`
}

type LocationRequest struct {
	Label        string `json:"label"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

type UpdateMemberRequest struct {
	Role  string  `json:"role"`
	Title *string `json:"title"`
}

type StudioResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Description  string         `json:"description"`
	WebsiteURL   string         `json:"website_url"`
	LogoURL      string         `json:"logo_url"`
	ContactEmail string         `json:"contact_email"`
	Settings     map[string]any `json:"settings"`
}

type StudioListResponseItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidStudio     = errors.New("invalid_studio")
	ErrInvalidLocation   = errors.New("invalid_location")
	ErrInvalidRole       = errors.New("invalid_role")
	ErrStudioNotFound    = errors.New("studio_not_found")
	ErrLocationNotFound  = errors.New("location_not_found")
	ErrMemberNotFound    = errors.New("member_not_found")
	ErrSlugTaken         = errors.New("slug_taken")
	ErrLastOwner         = errors.New("last_owner")
	ErrMemberLimit       = errors.New("member_limit_reached")
	ErrLocationLimit     = errors.New("location_limit_reached")
	ErrAlreadyMember     = errors.New("already_member")
)
