package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/studio/domain"
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

func (r *repository) CreateStudio(ctx context.Context, studio domain.Studio) error {
	return r.db.WithContext(ctx).Create(&studio).Error
}

func (r *repository) GetStudio(ctx context.Context, id snowflake.ID) (*domain.Studio, error) {
	var studio domain.Studio
	if err := r.db.WithContext(ctx).First(&studio, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStudioNotFound
		}
		return nil, err
	}
	return &studio, nil
}

func (r *repository) GetStudioBySlug(ctx context.Context, slug string) (*domain.Studio, error) {
	var studio domain.Studio
	if err := r.db.WithContext(ctx).First(&studio, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStudioNotFound
		}
		return nil, err
	}
	return &studio, nil
}

func (r *repository) UpdateStudio(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Studio{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStudioNotFound
	}
	return nil
}

func (r *repository) DeleteStudio(ctx context.Context, id snowflake.ID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Studio{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStudioNotFound
	}
	return nil
}

func (r *repository) ListStudiosByUser(ctx context.Context, userID snowflake.ID) ([]domain.StudioListItem, error) {
	var items []domain.StudioListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT s.id, s.name, s.slug, m.role, s.created_at
		 FROM studios s
		 JOIN studio_memberships m ON m.studio_id = s.id
		 WHERE m.user_id = ? AND m.status = ?
		 ORDER BY s.created_at ASC`,
		userID, domain.MembershipActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CreateLocation(ctx context.Context, loc domain.StudioLocation) error {
	return r.db.WithContext(ctx).Create(&loc).Error
}

func (r *repository) CountLocations(ctx context.Context, studioID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.StudioLocation{}).
		Where("studio_id = ?", studioID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListLocations(ctx context.Context, studioID snowflake.ID) ([]domain.StudioLocation, error) {
	var locs []domain.StudioLocation
	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at ASC").
		Find(&locs).Error
	if err != nil {
		return nil, err
	}
	return locs, nil
}

func (r *repository) GetLocation(ctx context.Context, studioID, locationID snowflake.ID) (*domain.StudioLocation, error) {
	var loc domain.StudioLocation
	err := r.db.WithContext(ctx).
		First(&loc, "id = ? AND studio_id = ?", locationID, studioID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func (r *repository) UpdateLocation(ctx context.Context, studioID, locationID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.StudioLocation{}).
		Where("id = ? AND studio_id = ?", locationID, studioID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLocationNotFound
	}
	return nil
}

func (r *repository) DeleteLocation(ctx context.Context, studioID, locationID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.StudioLocation{}, "id = ? AND studio_id = ?", locationID, studioID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLocationNotFound
	}
	return nil
}

func (r *repository) AddMembership(ctx context.Context, member domain.StudioMembership) error {
	return r.db.WithContext(ctx).Create(&member).Error
}

func (r *repository) GetMembership(ctx context.Context, studioID, userID snowflake.ID) (*domain.StudioMembership, error) {
	var member domain.StudioMembership
	err := r.db.WithContext(ctx).
		First(&member, "studio_id = ? AND user_id = ?", studioID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) GetMembershipAtLocation(ctx context.Context, studioID, userID snowflake.ID, locationID *snowflake.ID) (*domain.StudioMembership, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ? AND user_id = ?", studioID, userID)
	if locationID == nil {
		q = q.Where("location_id IS NULL")
	} else {
		q = q.Where("location_id = ?", *locationID)
	}
	var member domain.StudioMembership
	if err := q.First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) UpdateMembershipByID(ctx context.Context, membershipID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.StudioMembership{}).
		Where("id = ?", membershipID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *repository) ListMembers(ctx context.Context, studioID snowflake.ID) ([]domain.MemberListItem, error) {
	var items []domain.MemberListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.id AS membership_id, m.user_id, u.email, u.display_name,
		        m.role, m.status, m.location_id, m.membership_type, m.title, m.joined_at
		 FROM studio_memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.studio_id = ?
		 ORDER BY m.joined_at ASC`,
		studioID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CountActiveMembers(ctx context.Context, studioID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.StudioMembership{}).
		Where("studio_id = ? AND status = ?", studioID, domain.MembershipActive).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateMembership(ctx context.Context, studioID, userID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.StudioMembership{}).
		Where("studio_id = ? AND user_id = ?", studioID, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *repository) RemoveMembership(ctx context.Context, studioID, userID snowflake.ID) error {
	// Membership rows are kept for history; removal only flips the status.
	res := r.db.WithContext(ctx).
		Model(&domain.StudioMembership{}).
		Where("studio_id = ? AND user_id = ? AND status <> ?", studioID, userID, domain.MembershipInactive).
		Update("status", domain.MembershipInactive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
