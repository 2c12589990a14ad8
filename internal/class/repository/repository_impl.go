package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/class/domain"
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

func (r *repository) CreateClass(ctx context.Context, class domain.Class) error {
	return r.db.WithContext(ctx).Create(&class).Error
}

func (r *repository) GetClass(ctx context.Context, studioID, classID snowflake.ID) (*domain.Class, error) {
	var class domain.Class
	err := r.db.WithContext(ctx).
		First(&class, "id = ? AND studio_id = ?", classID, studioID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClassNotFound
		}
		return nil, err
	}
	return &class, nil
}

func (r *repository) ListClasses(ctx context.Context, studioID snowflake.ID, status string) ([]domain.Class, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var classes []domain.Class
	if err := q.Order("created_at DESC").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *repository) CountClassesByStatus(ctx context.Context, studioID snowflake.ID, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Class{}).
		Where("studio_id = ? AND status = ?", studioID, status).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateClass(ctx context.Context, classID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Class{}).
		Where("id = ?", classID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

func (r *repository) DeleteClass(ctx context.Context, studioID, classID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.Class{}, "id = ? AND studio_id = ?", classID, studioID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

func (r *repository) CreateImage(ctx context.Context, img domain.ClassImage) error {
	return r.db.WithContext(ctx).Create(&img).Error
}

func (r *repository) GetImage(ctx context.Context, classID, imageID snowflake.ID) (*domain.ClassImage, error) {
	var img domain.ClassImage
	err := r.db.WithContext(ctx).
		First(&img, "id = ? AND class_id = ?", imageID, classID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *repository) ListImages(ctx context.Context, classID snowflake.ID) ([]domain.ClassImage, error) {
	var imgs []domain.ClassImage
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("position ASC, created_at ASC").
		Find(&imgs).Error
	if err != nil {
		return nil, err
	}
	return imgs, nil
}

func (r *repository) CountImages(ctx context.Context, classID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ClassImage{}).
		Where("class_id = ?", classID).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateImage(ctx context.Context, imageID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ClassImage{}).
		Where("id = ?", imageID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func (r *repository) UnsetMainImage(ctx context.Context, classID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Model(&domain.ClassImage{}).
		Where("class_id = ? AND is_main", classID).
		Update("is_main", false).Error
}

func (r *repository) DeleteImage(ctx context.Context, classID, imageID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.ClassImage{}, "id = ? AND class_id = ?", imageID, classID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func (r *repository) EarliestImage(ctx context.Context, classID snowflake.ID) (*domain.ClassImage, error) {
	var img domain.ClassImage
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at ASC, id ASC").
		First(&img).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *repository) CreateTier(ctx context.Context, tier domain.PricingTier) error {
	return r.db.WithContext(ctx).Create(&tier).Error
}

func (r *repository) GetTier(ctx context.Context, classID, tierID snowflake.ID) (*domain.PricingTier, error) {
	var tier domain.PricingTier
	err := r.db.WithContext(ctx).
		First(&tier, "id = ? AND class_id = ?", tierID, classID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repository) ListTiers(ctx context.Context, classID snowflake.ID) ([]domain.PricingTier, error) {
	var tiers []domain.PricingTier
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("price_cents ASC, created_at ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) CountTiers(ctx context.Context, classID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PricingTier{}).
		Where("class_id = ?", classID).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateTier(ctx context.Context, tierID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.PricingTier{}).
		Where("id = ?", tierID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTierNotFound
	}
	return nil
}

func (r *repository) UnsetDefaultTier(ctx context.Context, classID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Model(&domain.PricingTier{}).
		Where("class_id = ? AND is_default", classID).
		Update("is_default", false).Error
}

func (r *repository) DeleteTier(ctx context.Context, classID, tierID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.PricingTier{}, "id = ? AND class_id = ?", tierID, classID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTierNotFound
	}
	return nil
}

func (r *repository) EarliestTier(ctx context.Context, classID snowflake.ID) (*domain.PricingTier, error) {
	var tier domain.PricingTier
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at ASC").
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repository) AddWaitlistEntry(ctx context.Context, entry domain.WaitlistEntry) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *repository) RemoveWaitlistEntry(ctx context.Context, classID, userID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.WaitlistEntry{}, "class_id = ? AND user_id = ?", classID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrWaitlistNotFound
	}
	return nil
}

func (r *repository) ListWaitlist(ctx context.Context, classID snowflake.ID) ([]domain.WaitlistRow, error) {
	var rows []domain.WaitlistRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT w.id AS entry_id, w.user_id, u.email, u.display_name, w.note, w.created_at
		 FROM class_waitlist w
		 JOIN users u ON u.id = w.user_id
		 WHERE w.class_id = ?
		 ORDER BY w.created_at ASC`,
		classID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
