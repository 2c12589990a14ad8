package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateClass(ctx context.Context, class Class) error
	GetClass(ctx context.Context, studioID, classID snowflake.ID) (*Class, error)
	ListClasses(ctx context.Context, studioID snowflake.ID, status string) ([]Class, error)
	CountClassesByStatus(ctx context.Context, studioID snowflake.ID, status string) (int64, error)
	UpdateClass(ctx context.Context, classID snowflake.ID, fields map[string]any) error
	DeleteClass(ctx context.Context, studioID, classID snowflake.ID) error

	CreateImage(ctx context.Context, img ClassImage) error
	GetImage(ctx context.Context, classID, imageID snowflake.ID) (*ClassImage, error)
	ListImages(ctx context.Context, classID snowflake.ID) ([]ClassImage, error)
	CountImages(ctx context.Context, classID snowflake.ID) (int64, error)
	UpdateImage(ctx context.Context, imageID snowflake.ID, fields map[string]any) error
	UnsetMainImage(ctx context.Context, classID snowflake.ID) error
	DeleteImage(ctx context.Context, classID, imageID snowflake.ID) error
	EarliestImage(ctx context.Context, classID snowflake.ID) (*ClassImage, error)

	CreateTier(ctx context.Context, tier PricingTier) error
	GetTier(ctx context.Context, classID, tierID snowflake.ID) (*PricingTier, error)
	ListTiers(ctx context.Context, classID snowflake.ID) ([]PricingTier, error)
	CountTiers(ctx context.Context, classID snowflake.ID) (int64, error)
	UpdateTier(ctx context.Context, tierID snowflake.ID, fields map[string]any) error
	UnsetDefaultTier(ctx context.Context, classID snowflake.ID) error
	DeleteTier(ctx context.Context, classID, tierID snowflake.ID) error
	EarliestTier(ctx context.Context, classID snowflake.ID) (*PricingTier, error)

	AddWaitlistEntry(ctx context.Context, entry WaitlistEntry) error
	RemoveWaitlistEntry(ctx context.Context, classID, userID snowflake.ID) error
	ListWaitlist(ctx context.Context, classID snowflake.ID) ([]WaitlistRow, error)
}
