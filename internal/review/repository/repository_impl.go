package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/review/domain"
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

func (r *repository) Create(ctx context.Context, review domain.Review) error {
	return r.db.WithContext(ctx).Create(&review).Error
}

func (r *repository) Get(ctx context.Context, studioID, reviewID snowflake.ID) (*domain.Review, error) {
	var review domain.Review
	err := r.db.WithContext(ctx).
		First(&review, "id = ? AND studio_id = ?", reviewID, studioID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListByStudio(ctx context.Context, studioID snowflake.ID) ([]domain.ReviewListItem, error) {
	var items []domain.ReviewListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT r.id, r.class_id, r.author_id, u.display_name,
		        r.rating, r.title, r.body, r.created_at
		 FROM reviews r
		 JOIN users u ON u.id = r.author_id
		 WHERE r.studio_id = ? AND r.class_id IS NULL
		 ORDER BY r.created_at DESC`,
		studioID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByClass(ctx context.Context, classID snowflake.ID) ([]domain.ReviewListItem, error) {
	var items []domain.ReviewListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT r.id, r.class_id, r.author_id, u.display_name,
		        r.rating, r.title, r.body, r.created_at
		 FROM reviews r
		 JOIN users u ON u.id = r.author_id
		 WHERE r.class_id = ?
		 ORDER BY r.created_at DESC`,
		classID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) RatingSummary(ctx context.Context, studioID snowflake.ID, classID *snowflake.ID) (*domain.RatingSummary, error) {
	var summary domain.RatingSummary
	q := r.db.WithContext(ctx).Model(&domain.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count")
	if classID != nil {
		q = q.Where("class_id = ?", *classID)
	} else {
		q = q.Where("studio_id = ? AND class_id IS NULL", studioID)
	}
	if err := q.Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *repository) Update(ctx context.Context, reviewID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("id = ?", reviewID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, studioID, reviewID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.Review{}, "id = ? AND studio_id = ?", reviewID, studioID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}
