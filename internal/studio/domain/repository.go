package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateStudio(ctx context.Context, studio Studio) error
	GetStudio(ctx context.Context, id snowflake.ID) (*Studio, error)
	GetStudioBySlug(ctx context.Context, slug string) (*Studio, error)
	UpdateStudio(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteStudio(ctx context.Context, id snowflake.ID) error
	ListStudiosByUser(ctx context.Context, userID snowflake.ID) ([]StudioListItem, error)

	CreateLocation(ctx context.Context, loc StudioLocation) error
	ListLocations(ctx context.Context, studioID snowflake.ID) ([]StudioLocation, error)
	CountLocations(ctx context.Context, studioID snowflake.ID) (int64, error)
	GetLocation(ctx context.Context, studioID, locationID snowflake.ID) (*StudioLocation, error)
	UpdateLocation(ctx context.Context, studioID, locationID snowflake.ID, fields map[string]any) error
	DeleteLocation(ctx context.Context, studioID, locationID snowflake.ID) error

	AddMembership(ctx context.Context, member StudioMembership) error
	GetMembership(ctx context.Context, studioID, userID snowflake.ID) (*StudioMembership, error)
	GetMembershipAtLocation(ctx context.Context, studioID, userID snowflake.ID, locationID *snowflake.ID) (*StudioMembership, error)
	UpdateMembershipByID(ctx context.Context, membershipID snowflake.ID, fields map[string]any) error
	ListMembers(ctx context.Context, studioID snowflake.ID) ([]MemberListItem, error)
	CountActiveMembers(ctx context.Context, studioID snowflake.ID) (int64, error)
	UpdateMembership(ctx context.Context, studioID, userID snowflake.ID, fields map[string]any) error
	RemoveMembership(ctx context.Context, studioID, userID snowflake.ID) error
}
