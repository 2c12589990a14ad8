package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateInvite(ctx context.Context, invite StudioInvite) error
	GetInviteByID(ctx context.Context, studioID, inviteID snowflake.ID) (*StudioInvite, error)
	GetInviteByToken(ctx context.Context, token string) (*StudioInvite, error)
	ListInvites(ctx context.Context, studioID snowflake.ID, status string) ([]StudioInvite, error)
	CountPendingInvites(ctx context.Context, studioID snowflake.ID) (int64, error)
	UpdateInvite(ctx context.Context, inviteID snowflake.ID, fields map[string]any) error

	CreateApplication(ctx context.Context, app MembershipApplication) error
	GetApplication(ctx context.Context, studioID, applicationID snowflake.ID) (*MembershipApplication, error)
	ListApplications(ctx context.Context, studioID snowflake.ID, status string) ([]MembershipApplication, error)
	UpdateApplication(ctx context.Context, applicationID snowflake.ID, fields map[string]any) error
}
