package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/auth/password"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultStudioName    = "Home Studio"
	defaultOwnerPassword = "changeme123"
	defaultOwnerDisplay  = "Studio Owner"
)

// EnsureDefaultStudioWithID seeds a studio under a fixed ID for
// single-tenant deployments that pin their studio up front.
func EnsureDefaultStudioWithID(db *gorm.DB, id int64, name string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureStudioTx(ctx, tx, node, snowflake.ID(id), name)
		return err
	})
}

// EnsureDefaultStudioAndOwner seeds the default studio plus an owner
// account for first-boot bootstrap. The owner password must be changed
// after the first login.
func EnsureDefaultStudioAndOwner(db *gorm.DB, name, ownerEmail string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		studio, err := ensureStudioTx(ctx, tx, node, node.Generate(), name)
		if err != nil {
			return err
		}

		email := strings.ToLower(strings.TrimSpace(ownerEmail))
		var user authdomain.User
		err = tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hashed, err := password.Hash(defaultOwnerPassword)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			user = authdomain.User{
				ID:           node.Generate(),
				Email:        email,
				PasswordHash: &hashed,
				DisplayName:  defaultOwnerDisplay,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
				return err
			}
		}

		var member studiodomain.StudioMembership
		err = tx.WithContext(ctx).
			Where("studio_id = ? AND user_id = ?", studio.ID, user.ID).
			First(&member).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		member = studiodomain.StudioMembership{
			ID:        node.Generate(),
			StudioID:  studio.ID,
			UserID:    user.ID,
			Role:      studiodomain.RoleOwner,
			Status:    studiodomain.MembershipActive,
			JoinedAt:  now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.WithContext(ctx).Create(&member).Error
	})
}

func ensureStudioTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, id snowflake.ID, name string) (studiodomain.Studio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultStudioName
	}
	slugStr := slug.Make(name)

	var studio studiodomain.Studio
	err := tx.WithContext(ctx).Where("slug = ?", slugStr).First(&studio).Error
	if err == nil {
		return studio, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return studio, err
	}

	now := time.Now().UTC()
	studio = studiodomain.Studio{
		ID:        id,
		Name:      name,
		Slug:      slugStr,
		Settings:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&studio).Error; err != nil {
		return studio, err
	}
	return studio, nil
}
