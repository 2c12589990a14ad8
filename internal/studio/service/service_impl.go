package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/throwclay/throwclay/internal/audit/domain"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/observability/metrics"
	"github.com/throwclay/throwclay/internal/studio/domain"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	GenID   *snowflake.Node
	Clock   clock.Clock
	Limits  *config.StudioLimitsHolder
	Audit   auditdomain.Service `optional:"true"`
	Metrics *metrics.Metrics    `optional:"true"`
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	limits  *config.StudioLimitsHolder
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("studio"),
		repo:    p.Repo,
		genID:   p.GenID,
		clock:   p.Clock,
		limits:  p.Limits,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateStudioRequest) (*domain.StudioResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	slugStr := slug.Make(name)
	if _, err := s.repo.GetStudioBySlug(ctx, slugStr); err == nil {
		slugStr = slugStr + "-" + s.genID.Generate().String()
	}

	now := s.clock.Now()
	studioID := s.genID.Generate()
	studio := domain.Studio{
		ID:           studioID,
		Name:         name,
		Slug:         slugStr,
		Description:  strings.TrimSpace(req.Description),
		WebsiteURL:   strings.TrimSpace(req.WebsiteURL),
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		Settings:     datatypes.JSONMap(req.Settings),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if studio.Settings == nil {
		studio.Settings = datatypes.JSONMap{}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateStudio(ctx, studio); err != nil {
			return err
		}

		member := domain.StudioMembership{
			ID:        s.genID.Generate(),
			StudioID:  studioID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			Status:    domain.MembershipActive,
			JoinedAt:  now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return repo.AddMembership(ctx, member)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.recordMembership(ctx, "joined", domain.RoleOwner)
	s.auditEvent(ctx, &studioID, "studio.created", "studio", studioID.String(), map[string]any{
		"name": name,
		"slug": slugStr,
	})

	return studioResponse(&studio), nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.StudioResponse, error) {
	studioID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	studio, err := s.repo.GetStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	return studioResponse(studio), nil
}

func (s *service) GetBySlug(ctx context.Context, slugStr string) (*domain.StudioResponse, error) {
	slugStr = strings.TrimSpace(slugStr)
	if slugStr == "" {
		return nil, domain.ErrInvalidStudio
	}

	studio, err := s.repo.GetStudioBySlug(ctx, slugStr)
	if err != nil {
		return nil, err
	}
	return studioResponse(studio), nil
}

func (s *service) Update(ctx context.Context, id string, req domain.UpdateStudioRequest) (*domain.StudioResponse, error) {
	studioID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.WebsiteURL != nil {
		fields["website_url"] = strings.TrimSpace(*req.WebsiteURL)
	}
	if req.LogoURL != nil {
		fields["logo_url"] = strings.TrimSpace(*req.LogoURL)
	}
	if req.ContactEmail != nil {
		fields["contact_email"] = strings.ToLower(strings.TrimSpace(*req.ContactEmail))
	}
	if req.Settings != nil {
		fields["settings"] = datatypes.JSONMap(req.Settings)
	}

	if err := s.repo.UpdateStudio(ctx, studioID, fields); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &studioID, "studio.updated", "studio", studioID.String(), nil)

	studio, err := s.repo.GetStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	return studioResponse(studio), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	studioID, err := parseID(id)
	if err != nil {
		return domain.ErrInvalidStudio
	}

	if err := s.repo.DeleteStudio(ctx, studioID); err != nil {
		return err
	}

	s.auditEvent(ctx, &studioID, "studio.deleted", "studio", studioID.String(), nil)
	return nil
}

func (s *service) ListStudiosByUser(ctx context.Context, userID snowflake.ID) ([]domain.StudioListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListStudiosByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.StudioListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.StudioListResponseItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Slug:      item.Slug,
			Role:      item.Role,
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (s *service) CreateLocation(ctx context.Context, studioID string, req domain.LocationRequest) (*domain.StudioLocation, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	if _, err := s.repo.GetStudio(ctx, sid); err != nil {
		return nil, err
	}
	count, err := s.repo.CountLocations(ctx, sid)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.limits.Get().MaxLocations) {
		return nil, domain.ErrLocationLimit
	}

	now := s.clock.Now()
	loc := domain.StudioLocation{
		ID:           s.genID.Generate(),
		StudioID:     sid,
		Label:        strings.TrimSpace(req.Label),
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		AddressLine2: strings.TrimSpace(req.AddressLine2),
		City:         strings.TrimSpace(req.City),
		Region:       strings.TrimSpace(req.Region),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		Country:      strings.TrimSpace(req.Country),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &sid, "location.created", "location", loc.ID.String(), nil)
	return &loc, nil
}

func (s *service) ListLocations(ctx context.Context, studioID string) ([]domain.StudioLocation, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	return s.repo.ListLocations(ctx, sid)
}

func (s *service) UpdateLocation(ctx context.Context, studioID, locationID string, req domain.LocationRequest) (*domain.StudioLocation, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	lid, err := parseID(locationID)
	if err != nil {
		return nil, domain.ErrInvalidLocation
	}

	fields := map[string]any{
		"label":         strings.TrimSpace(req.Label),
		"address_line1": strings.TrimSpace(req.AddressLine1),
		"address_line2": strings.TrimSpace(req.AddressLine2),
		"city":          strings.TrimSpace(req.City),
		"region":        strings.TrimSpace(req.Region),
		"postal_code":   strings.TrimSpace(req.PostalCode),
		"country":       strings.TrimSpace(req.Country),
		"updated_at":    s.clock.Now(),
	}
	if err := s.repo.UpdateLocation(ctx, sid, lid, fields); err != nil {
		return nil, err
	}
	return s.repo.GetLocation(ctx, sid, lid)
}

func (s *service) DeleteLocation(ctx context.Context, studioID, locationID string) error {
	sid, err := parseID(studioID)
	if err != nil {
		return domain.ErrInvalidStudio
	}
	lid, err := parseID(locationID)
	if err != nil {
		return domain.ErrInvalidLocation
	}

	if err := s.repo.DeleteLocation(ctx, sid, lid); err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "location.deleted", "location", lid.String(), nil)
	return nil
}

func (s *service) ListMembers(ctx context.Context, studioID string) ([]domain.MemberListItem, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	return s.repo.ListMembers(ctx, sid)
}

func (s *service) UpdateMemberRole(ctx context.Context, studioID, userID string, req domain.UpdateMemberRequest) error {
	sid, err := parseID(studioID)
	if err != nil {
		return domain.ErrInvalidStudio
	}
	uid, err := parseID(userID)
	if err != nil {
		return domain.ErrInvalidUser
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !domain.ValidRole(role) {
		return domain.ErrInvalidRole
	}

	member, err := s.repo.GetMembership(ctx, sid, uid)
	if err != nil {
		return err
	}

	if member.Role == domain.RoleOwner && role != domain.RoleOwner {
		last, err := s.isLastOwner(ctx, sid)
		if err != nil {
			return err
		}
		if last {
			return domain.ErrLastOwner
		}
	}

	fields := map[string]any{
		"role":       role,
		"updated_at": s.clock.Now(),
	}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if err := s.repo.UpdateMembership(ctx, sid, uid, fields); err != nil {
		return err
	}

	s.recordMembership(ctx, "role_updated", role)
	s.auditEvent(ctx, &sid, "membership.role_updated", "membership", member.ID.String(), map[string]any{
		"user_id":  uid.String(),
		"old_role": member.Role,
		"new_role": role,
	})
	return nil
}

func (s *service) RemoveMember(ctx context.Context, studioID, userID string) error {
	sid, err := parseID(studioID)
	if err != nil {
		return domain.ErrInvalidStudio
	}
	uid, err := parseID(userID)
	if err != nil {
		return domain.ErrInvalidUser
	}

	member, err := s.repo.GetMembership(ctx, sid, uid)
	if err != nil {
		return err
	}

	if member.Role == domain.RoleOwner {
		last, err := s.isLastOwner(ctx, sid)
		if err != nil {
			return err
		}
		if last {
			return domain.ErrLastOwner
		}
	}

	if err := s.repo.RemoveMembership(ctx, sid, uid); err != nil {
		return err
	}

	s.recordMembership(ctx, "removed", member.Role)
	s.auditEvent(ctx, &sid, "membership.removed", "membership", member.ID.String(), map[string]any{
		"user_id": uid.String(),
		"role":    member.Role,
	})
	return nil
}

func (s *service) isLastOwner(ctx context.Context, studioID snowflake.ID) (bool, error) {
	var owners int64
	err := s.db.WithContext(ctx).
		Model(&domain.StudioMembership{}).
		Where("studio_id = ? AND role = ? AND status = ?", studioID, domain.RoleOwner, domain.MembershipActive).
		Count(&owners).Error
	if err != nil {
		return false, err
	}
	return owners <= 1, nil
}

func (s *service) auditEvent(ctx context.Context, studioID *snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, studioID, "user", nil, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}

func (s *service) recordMembership(ctx context.Context, action, role string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordMembershipEvent(ctx, action, role)
}

func studioResponse(studio *domain.Studio) *domain.StudioResponse {
	return &domain.StudioResponse{
		ID:           studio.ID.String(),
		Name:         studio.Name,
		Slug:         studio.Slug,
		Description:  studio.Description,
		WebsiteURL:   studio.WebsiteURL,
		LogoURL:      studio.LogoURL,
		ContactEmail: studio.ContactEmail,
		Settings:     map[string]any(studio.Settings),
	}
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
