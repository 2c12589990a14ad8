package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/invite/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateInvite(ctx context.Context, invite domain.StudioInvite) error {
	return r.db.WithContext(ctx).Create(&invite).Error
}

func (r *repository) GetInviteByID(ctx context.Context, studioID, inviteID snowflake.ID) (*domain.StudioInvite, error) {
	var invite domain.StudioInvite
	err := r.db.WithContext(ctx).
		First(&invite, "id = ? AND studio_id = ?", inviteID, studioID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}

func (r *repository) GetInviteByToken(ctx context.Context, token string) (*domain.StudioInvite, error) {
	var invite domain.StudioInvite
	err := r.db.WithContext(ctx).First(&invite, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}

func (r *repository) ListInvites(ctx context.Context, studioID snowflake.ID, status string) ([]domain.StudioInvite, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var invites []domain.StudioInvite
	if err := q.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *repository) CountPendingInvites(ctx context.Context, studioID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.StudioInvite{}).
		Where("studio_id = ? AND status = ?", studioID, domain.StatusPending).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateInvite(ctx context.Context, inviteID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.StudioInvite{}).
		Where("id = ?", inviteID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInviteNotFound
	}
	return nil
}

func (r *repository) CreateApplication(ctx context.Context, app domain.MembershipApplication) error {
	return r.db.WithContext(ctx).Create(&app).Error
}

func (r *repository) GetApplication(ctx context.Context, studioID, applicationID snowflake.ID) (*domain.MembershipApplication, error) {
	var app domain.MembershipApplication
	err := r.db.WithContext(ctx).
		First(&app, "id = ? AND studio_id = ?", applicationID, studioID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *repository) ListApplications(ctx context.Context, studioID snowflake.ID, status string) ([]domain.MembershipApplication, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var apps []domain.MembershipApplication
	if err := q.Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repository) UpdateApplication(ctx context.Context, applicationID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.MembershipApplication{}).
		Where("id = ?", applicationID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}
