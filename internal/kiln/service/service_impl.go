package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/throwclay/throwclay/internal/audit/domain"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/kiln/domain"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// A firing with no declared end blocks the kiln for this long.
const defaultFiringWindow = 8 * time.Hour

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	StudioRepo studiodomain.Repository
	GenID      *snowflake.Node
	Clock      clock.Clock
	Audit      auditdomain.Service `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	studioRepo studiodomain.Repository
	genID      *snowflake.Node
	clock      clock.Clock
	audit      auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("kiln"),
		repo:       p.Repo,
		studioRepo: p.StudioRepo,
		genID:      p.GenID,
		clock:      p.Clock,
		audit:      p.Audit,
	}
}

func (s *service) CreateKiln(ctx context.Context, studioID string, req domain.KilnRequest) (*domain.Kiln, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	if _, err := s.studioRepo.GetStudio(ctx, sid); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	kilnType := strings.ToLower(strings.TrimSpace(req.KilnType))
	if kilnType == "" {
		kilnType = "electric"
	}
	if !domain.ValidKilnType(kilnType) {
		return nil, domain.ErrInvalidKilnType
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = domain.KilnStatusOperational
	}
	if !domain.ValidKilnStatus(status) {
		return nil, domain.ErrInvalidKilnStatus
	}

	now := s.clock.Now()
	kiln := domain.Kiln{
		ID:             s.genID.Generate(),
		StudioID:       sid,
		Name:           name,
		KilnType:       kilnType,
		MaxTempC:       req.MaxTempC,
		CapacityLiters: req.CapacityLiters,
		Status:         status,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateKiln(ctx, kiln); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &sid, "kiln.created", "kiln", kiln.ID.String(), map[string]any{
		"name": name,
	})
	return &kiln, nil
}

func (s *service) GetKiln(ctx context.Context, studioID, kilnID string) (*domain.Kiln, error) {
	sid, kid, err := parseStudioKiln(studioID, kilnID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetKiln(ctx, sid, kid)
}

func (s *service) ListKilns(ctx context.Context, studioID string) ([]domain.Kiln, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	return s.repo.ListKilns(ctx, sid)
}

func (s *service) UpdateKiln(ctx context.Context, studioID, kilnID string, req domain.KilnRequest) (*domain.Kiln, error) {
	sid, kid, err := parseStudioKiln(studioID, kilnID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetKiln(ctx, sid, kid); err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if kilnType := strings.ToLower(strings.TrimSpace(req.KilnType)); kilnType != "" {
		if !domain.ValidKilnType(kilnType) {
			return nil, domain.ErrInvalidKilnType
		}
		fields["kiln_type"] = kilnType
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		if !domain.ValidKilnStatus(status) {
			return nil, domain.ErrInvalidKilnStatus
		}
		fields["status"] = status
	}
	if req.MaxTempC > 0 {
		fields["max_temp_c"] = req.MaxTempC
	}
	if req.CapacityLiters > 0 {
		fields["capacity_liters"] = req.CapacityLiters
	}
	if req.Notes != "" {
		fields["notes"] = strings.TrimSpace(req.Notes)
	}

	if err := s.repo.UpdateKiln(ctx, kid, fields); err != nil {
		return nil, err
	}
	return s.repo.GetKiln(ctx, sid, kid)
}

func (s *service) DeleteKiln(ctx context.Context, studioID, kilnID string) error {
	sid, kid, err := parseStudioKiln(studioID, kilnID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteKiln(ctx, sid, kid); err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "kiln.deleted", "kiln", kid.String(), nil)
	return nil
}

func (s *service) ScheduleFiring(ctx context.Context, userID snowflake.ID, studioID, kilnID string, req domain.FiringRequest) (*domain.Firing, error) {
	sid, kid, err := parseStudioKiln(studioID, kilnID)
	if err != nil {
		return nil, err
	}

	kiln, err := s.repo.GetKiln(ctx, sid, kid)
	if err != nil {
		return nil, err
	}
	if kiln.Status != domain.KilnStatusOperational {
		return nil, domain.ErrKilnNotOperational
	}

	firingType := strings.ToLower(strings.TrimSpace(req.FiringType))
	if firingType == "" {
		firingType = "bisque"
	}
	if !domain.ValidFiringType(firingType) {
		return nil, domain.ErrInvalidFiringType
	}

	if req.StartsAt.IsZero() {
		return nil, domain.ErrInvalidTimeRange
	}
	windowEnd := req.StartsAt.Add(defaultFiringWindow)
	if req.EndsAt != nil {
		if !req.EndsAt.After(req.StartsAt) {
			return nil, domain.ErrInvalidTimeRange
		}
		windowEnd = *req.EndsAt
	}

	overlapping, err := s.repo.CountOverlappingFirings(ctx, kid, req.StartsAt, windowEnd)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, domain.ErrFiringOverlap
	}

	now := s.clock.Now()
	firing := domain.Firing{
		ID:          s.genID.Generate(),
		KilnID:      kid,
		ScheduledBy: &userID,
		Cone:        strings.TrimSpace(req.Cone),
		FiringType:  firingType,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      domain.FiringScheduled,
		Notes:       strings.TrimSpace(req.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateFiring(ctx, firing); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &sid, "firing.scheduled", "firing", firing.ID.String(), map[string]any{
		"kiln_id":     kid.String(),
		"firing_type": firingType,
	})
	return &firing, nil
}

func (s *service) ListFirings(ctx context.Context, studioID, kilnID, status string) ([]domain.Firing, error) {
	sid, kid, err := parseStudioKiln(studioID, kilnID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetKiln(ctx, sid, kid); err != nil {
		return nil, err
	}
	return s.repo.ListFirings(ctx, kid, strings.ToLower(strings.TrimSpace(status)))
}

func (s *service) GetFiring(ctx context.Context, studioID, kilnID, firingID string) (*domain.Firing, error) {
	sid, kid, err := parseStudioKiln(studioID, kilnID)
	if err != nil {
		return nil, err
	}
	fid, err := parseID(firingID)
	if err != nil {
		return nil, domain.ErrInvalidFiring
	}
	if _, err := s.repo.GetKiln(ctx, sid, kid); err != nil {
		return nil, err
	}
	return s.repo.GetFiring(ctx, kid, fid)
}

func (s *service) UpdateFiringStatus(ctx context.Context, studioID, kilnID, firingID, status string) error {
	sid, kid, err := parseStudioKiln(studioID, kilnID)
	if err != nil {
		return err
	}
	fid, err := parseID(firingID)
	if err != nil {
		return domain.ErrInvalidFiring
	}
	if _, err := s.repo.GetKiln(ctx, sid, kid); err != nil {
		return err
	}

	firing, err := s.repo.GetFiring(ctx, kid, fid)
	if err != nil {
		return err
	}

	status = strings.ToLower(strings.TrimSpace(status))
	if !validTransition(firing.Status, status) {
		return domain.ErrInvalidTransition
	}

	fields := map[string]any{
		"status":     status,
		"updated_at": s.clock.Now(),
	}
	if status == domain.FiringCompleted && firing.EndsAt == nil {
		fields["ends_at"] = s.clock.Now()
	}
	if err := s.repo.UpdateFiring(ctx, fid, fields); err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "firing."+status, "firing", fid.String(), nil)
	return nil
}

func validTransition(from, to string) bool {
	switch from {
	case domain.FiringScheduled:
		return to == domain.FiringInProgress || to == domain.FiringCancelled
	case domain.FiringInProgress:
		return to == domain.FiringCompleted || to == domain.FiringCancelled
	}
	return false
}

func (s *service) auditEvent(ctx context.Context, studioID *snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, studioID, "user", nil, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}

func parseStudioKiln(studioID, kilnID string) (snowflake.ID, snowflake.ID, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return 0, 0, domain.ErrInvalidStudio
	}
	kid, err := parseID(kilnID)
	if err != nil {
		return 0, 0, domain.ErrInvalidKiln
	}
	return sid, kid, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
