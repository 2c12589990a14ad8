package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/kiln/domain"
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

func (r *repository) CreateKiln(ctx context.Context, kiln domain.Kiln) error {
	return r.db.WithContext(ctx).Create(&kiln).Error
}

func (r *repository) GetKiln(ctx context.Context, studioID, kilnID snowflake.ID) (*domain.Kiln, error) {
	var kiln domain.Kiln
	err := r.db.WithContext(ctx).
		First(&kiln, "id = ? AND studio_id = ?", kilnID, studioID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrKilnNotFound
		}
		return nil, err
	}
	return &kiln, nil
}

func (r *repository) ListKilns(ctx context.Context, studioID snowflake.ID) ([]domain.Kiln, error) {
	var kilns []domain.Kiln
	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at ASC").
		Find(&kilns).Error
	if err != nil {
		return nil, err
	}
	return kilns, nil
}

func (r *repository) UpdateKiln(ctx context.Context, kilnID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Kiln{}).
		Where("id = ?", kilnID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrKilnNotFound
	}
	return nil
}

func (r *repository) DeleteKiln(ctx context.Context, studioID, kilnID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.Kiln{}, "id = ? AND studio_id = ?", kilnID, studioID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrKilnNotFound
	}
	return nil
}

func (r *repository) CreateFiring(ctx context.Context, firing domain.Firing) error {
	return r.db.WithContext(ctx).Create(&firing).Error
}

func (r *repository) GetFiring(ctx context.Context, kilnID, firingID snowflake.ID) (*domain.Firing, error) {
	var firing domain.Firing
	err := r.db.WithContext(ctx).
		First(&firing, "id = ? AND kiln_id = ?", firingID, kilnID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFiringNotFound
		}
		return nil, err
	}
	return &firing, nil
}

func (r *repository) ListFirings(ctx context.Context, kilnID snowflake.ID, status string) ([]domain.Firing, error) {
	q := r.db.WithContext(ctx).Where("kiln_id = ?", kilnID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var firings []domain.Firing
	if err := q.Order("starts_at ASC").Find(&firings).Error; err != nil {
		return nil, err
	}
	return firings, nil
}

func (r *repository) CountOverlappingFirings(ctx context.Context, kilnID snowflake.ID, startsAt, endsAt time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Firing{}).
		Where("kiln_id = ? AND status IN ?", kilnID, []string{domain.FiringScheduled, domain.FiringInProgress}).
		Where("starts_at < ? AND COALESCE(ends_at, starts_at) > ?", endsAt, startsAt).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateFiring(ctx context.Context, firingID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Firing{}).
		Where("id = ?", firingID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrFiringNotFound
	}
	return nil
}
