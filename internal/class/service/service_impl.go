package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	auditdomain "github.com/throwclay/throwclay/internal/audit/domain"
	"github.com/throwclay/throwclay/internal/class/domain"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/observability/metrics"
	"github.com/throwclay/throwclay/internal/providers/pdf"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	StudioRepo studiodomain.Repository
	GenID      *snowflake.Node
	Clock      clock.Clock
	Limits     *config.StudioLimitsHolder
	Audit      auditdomain.Service `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
	PDF        pdf.Provider        `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	studioRepo studiodomain.Repository
	genID      *snowflake.Node
	clock      clock.Clock
	limits     *config.StudioLimitsHolder
	audit      auditdomain.Service
	metrics    *metrics.Metrics
	pdf        pdf.Provider
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("class"),
		repo:       p.Repo,
		studioRepo: p.StudioRepo,
		genID:      p.GenID,
		clock:      p.Clock,
		limits:     p.Limits,
		audit:      p.Audit,
		metrics:    p.Metrics,
		pdf:        p.PDF,
	}
}

func (s *service) Create(ctx context.Context, studioID string, req domain.CreateClassRequest) (*domain.ClassResponse, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	if _, err := s.studioRepo.GetStudio(ctx, sid); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	skillLevel := strings.ToLower(strings.TrimSpace(req.SkillLevel))
	if skillLevel == "" {
		skillLevel = domain.SkillAllLevels
	}
	if !domain.ValidSkillLevel(skillLevel) {
		return nil, domain.ErrInvalidSkillLevel
	}

	now := s.clock.Now()
	class := domain.Class{
		ID:              s.genID.Generate(),
		StudioID:        sid,
		Title:           title,
		Summary:         strings.TrimSpace(req.Summary),
		Description:     strings.TrimSpace(req.Description),
		SkillLevel:      skillLevel,
		Techniques:      normalizeTechniques(req.Techniques),
		Capacity:        req.Capacity,
		DurationMinutes: req.DurationMinutes,
		Schedule:        datatypes.JSONMap(req.Schedule),
		Status:          domain.StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if class.Schedule == nil {
		class.Schedule = datatypes.JSONMap{}
	}
	if req.LocationID != "" {
		lid, err := parseID(req.LocationID)
		if err != nil {
			return nil, domain.ErrInvalidClass
		}
		class.LocationID = &lid
	}
	if req.InstructorID != "" {
		iid, err := parseID(req.InstructorID)
		if err != nil {
			return nil, domain.ErrInvalidUser
		}
		class.InstructorID = &iid
	}

	if err := s.repo.CreateClass(ctx, class); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &sid, "class.created", "class", class.ID.String(), map[string]any{
		"title": title,
	})
	return classResponse(&class), nil
}

func (s *service) Get(ctx context.Context, studioID, classID string) (*domain.ClassDetailResponse, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}

	class, err := s.repo.GetClass(ctx, sid, cid)
	if err != nil {
		return nil, err
	}

	images, err := s.repo.ListImages(ctx, cid)
	if err != nil {
		return nil, err
	}
	tiers, err := s.repo.ListTiers(ctx, cid)
	if err != nil {
		return nil, err
	}

	return &domain.ClassDetailResponse{
		ClassResponse: *classResponse(class),
		Images:        images,
		Tiers:         tiers,
	}, nil
}

func (s *service) List(ctx context.Context, studioID, status string) ([]domain.ClassResponse, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	classes, err := s.repo.ListClasses(ctx, sid, status)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.ClassResponse, 0, len(classes))
	for i := range classes {
		resp = append(resp, *classResponse(&classes[i]))
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, studioID, classID string, req domain.UpdateClassRequest) (*domain.ClassResponse, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}

	class, err := s.repo.GetClass(ctx, sid, cid)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		fields["title"] = title
	}
	if req.Summary != nil {
		fields["summary"] = strings.TrimSpace(*req.Summary)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.SkillLevel != nil {
		level := strings.ToLower(strings.TrimSpace(*req.SkillLevel))
		if !domain.ValidSkillLevel(level) {
			return nil, domain.ErrInvalidSkillLevel
		}
		fields["skill_level"] = level
	}
	if req.Techniques != nil {
		fields["techniques"] = normalizeTechniques(req.Techniques)
	}
	if req.Capacity != nil {
		fields["capacity"] = *req.Capacity
	}
	if req.DurationMinutes != nil {
		fields["duration_minutes"] = *req.DurationMinutes
	}
	if req.Schedule != nil {
		fields["schedule"] = datatypes.JSONMap(req.Schedule)
	}
	if req.LocationID != nil {
		if *req.LocationID == "" {
			fields["location_id"] = nil
		} else {
			lid, err := parseID(*req.LocationID)
			if err != nil {
				return nil, domain.ErrInvalidClass
			}
			fields["location_id"] = lid
		}
	}
	if req.InstructorID != nil {
		if *req.InstructorID == "" {
			fields["instructor_id"] = nil
		} else {
			iid, err := parseID(*req.InstructorID)
			if err != nil {
				return nil, domain.ErrInvalidUser
			}
			fields["instructor_id"] = iid
		}
	}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !domain.ValidStatus(status) {
			return nil, domain.ErrInvalidStatus
		}
		if status == domain.StatusPublished && class.Status != domain.StatusPublished {
			limits := s.limits.Get()
			published, err := s.repo.CountClassesByStatus(ctx, sid, domain.StatusPublished)
			if err != nil {
				return nil, err
			}
			if published >= int64(limits.MaxActiveClasses) {
				return nil, domain.ErrClassLimit
			}
		}
		fields["status"] = status
	}

	if err := s.repo.UpdateClass(ctx, cid, fields); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &sid, "class.updated", "class", cid.String(), nil)

	updated, err := s.repo.GetClass(ctx, sid, cid)
	if err != nil {
		return nil, err
	}
	return classResponse(updated), nil
}

func (s *service) Delete(ctx context.Context, studioID, classID string) error {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteClass(ctx, sid, cid); err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "class.deleted", "class", cid.String(), nil)
	return nil
}

func (s *service) AddImage(ctx context.Context, studioID, classID string, req domain.ImageRequest) (*domain.ClassImage, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return nil, err
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, domain.ErrInvalidImage
	}

	limits := s.limits.Get()
	count, err := s.repo.CountImages(ctx, cid)
	if err != nil {
		return nil, err
	}
	if count >= int64(limits.MaxImagesPerClass) {
		return nil, domain.ErrImageLimit
	}

	now := s.clock.Now()
	img := domain.ClassImage{
		ID:           s.genID.Generate(),
		ClassID:      cid,
		URL:          url,
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		Caption:      strings.TrimSpace(req.Caption),
		IsMain:       count == 0, // the first image becomes the cover
		Position:     req.Position,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateImage(ctx, img); err != nil {
			return err
		}
		if !img.IsMain {
			return nil
		}
		return repo.UpdateClass(ctx, cid, map[string]any{
			"thumbnail":  img.URL,
			"updated_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &sid, "class_image.added", "class_image", img.ID.String(), map[string]any{
		"class_id": cid.String(),
	})
	return &img, nil
}

func (s *service) ListImages(ctx context.Context, studioID, classID string) ([]domain.ClassImage, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return nil, err
	}
	return s.repo.ListImages(ctx, cid)
}

func (s *service) SetMainImage(ctx context.Context, studioID, classID, imageID string) error {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return err
	}
	iid, err := parseID(imageID)
	if err != nil {
		return domain.ErrInvalidImage
	}

	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return err
	}
	img, err := s.repo.GetImage(ctx, cid, iid)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UnsetMainImage(ctx, cid); err != nil {
			return err
		}
		if err := repo.UpdateImage(ctx, iid, map[string]any{
			"is_main":    true,
			"updated_at": now,
		}); err != nil {
			return err
		}
		return repo.UpdateClass(ctx, cid, map[string]any{
			"thumbnail":  img.URL,
			"updated_at": now,
		})
	})
	if err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "class_image.main_changed", "class_image", iid.String(), map[string]any{
		"class_id": cid.String(),
	})
	return nil
}

func (s *service) DeleteImage(ctx context.Context, studioID, classID, imageID string) error {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return err
	}
	iid, err := parseID(imageID)
	if err != nil {
		return domain.ErrInvalidImage
	}

	img, err := s.repo.GetImage(ctx, cid, iid)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteImage(ctx, cid, iid); err != nil {
			return err
		}
		if !img.IsMain {
			return nil
		}

		// Deleting the cover promotes the earliest remaining image.
		next, err := repo.EarliestImage(ctx, cid)
		if err != nil {
			if err == domain.ErrImageNotFound {
				return repo.UpdateClass(ctx, cid, map[string]any{
					"thumbnail":  "",
					"updated_at": now,
				})
			}
			return err
		}
		if err := repo.UpdateImage(ctx, next.ID, map[string]any{
			"is_main":    true,
			"updated_at": now,
		}); err != nil {
			return err
		}
		return repo.UpdateClass(ctx, cid, map[string]any{
			"thumbnail":  next.URL,
			"updated_at": now,
		})
	})
	if err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "class_image.deleted", "class_image", iid.String(), map[string]any{
		"class_id": cid.String(),
	})
	return nil
}

func (s *service) CreateTier(ctx context.Context, studioID, classID string, req domain.TierRequest) (*domain.PricingTier, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidTier
	}

	limits := s.limits.Get()
	count, err := s.repo.CountTiers(ctx, cid)
	if err != nil {
		return nil, err
	}
	if count >= int64(limits.MaxPricingTiers) {
		return nil, domain.ErrTierLimit
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	sessions := req.SessionsIncluded
	if sessions <= 0 {
		sessions = 1
	}

	now := s.clock.Now()
	tier := domain.PricingTier{
		ID:               s.genID.Generate(),
		ClassID:          cid,
		Name:             name,
		Description:      strings.TrimSpace(req.Description),
		PriceCents:       req.PriceCents,
		Currency:         currency,
		SessionsIncluded: sessions,
		IsDefault:        count == 0, // the first tier becomes the default
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateTier(ctx, tier); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, &sid, "pricing_tier.created", "pricing_tier", tier.ID.String(), map[string]any{
		"class_id": cid.String(),
	})
	return &tier, nil
}

func (s *service) ListTiers(ctx context.Context, studioID, classID string) ([]domain.PricingTier, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return nil, err
	}
	return s.repo.ListTiers(ctx, cid)
}

func (s *service) UpdateTier(ctx context.Context, studioID, classID, tierID string, req domain.TierRequest) (*domain.PricingTier, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}
	tid, err := parseID(tierID)
	if err != nil {
		return nil, domain.ErrInvalidTier
	}
	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTier(ctx, cid, tid); err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if req.Description != "" {
		fields["description"] = strings.TrimSpace(req.Description)
	}
	if req.PriceCents > 0 {
		fields["price_cents"] = req.PriceCents
	}
	if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != "" {
		fields["currency"] = currency
	}
	if req.SessionsIncluded > 0 {
		fields["sessions_included"] = req.SessionsIncluded
	}

	if err := s.repo.UpdateTier(ctx, tid, fields); err != nil {
		return nil, err
	}
	return s.repo.GetTier(ctx, cid, tid)
}

func (s *service) SetDefaultTier(ctx context.Context, studioID, classID, tierID string) error {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return err
	}
	tid, err := parseID(tierID)
	if err != nil {
		return domain.ErrInvalidTier
	}

	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return err
	}
	if _, err := s.repo.GetTier(ctx, cid, tid); err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UnsetDefaultTier(ctx, cid); err != nil {
			return err
		}
		return repo.UpdateTier(ctx, tid, map[string]any{
			"is_default": true,
			"updated_at": now,
		})
	})
	if err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "pricing_tier.default_changed", "pricing_tier", tid.String(), map[string]any{
		"class_id": cid.String(),
	})
	return nil
}

func (s *service) DeleteTier(ctx context.Context, studioID, classID, tierID string) error {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return err
	}
	tid, err := parseID(tierID)
	if err != nil {
		return domain.ErrInvalidTier
	}

	tier, err := s.repo.GetTier(ctx, cid, tid)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteTier(ctx, cid, tid); err != nil {
			return err
		}
		if !tier.IsDefault {
			return nil
		}

		next, err := repo.EarliestTier(ctx, cid)
		if err != nil {
			if err == domain.ErrTierNotFound {
				return nil
			}
			return err
		}
		return repo.UpdateTier(ctx, next.ID, map[string]any{
			"is_default": true,
			"updated_at": now,
		})
	})
	if err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, "pricing_tier.deleted", "pricing_tier", tid.String(), map[string]any{
		"class_id": cid.String(),
	})
	return nil
}

func (s *service) JoinWaitlist(ctx context.Context, userID snowflake.ID, studioID, classID string, note string) (*domain.WaitlistEntry, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}

	class, err := s.repo.GetClass(ctx, sid, cid)
	if err != nil {
		return nil, err
	}
	if class.Status != domain.StatusPublished {
		return nil, domain.ErrClassNotPublished
	}

	entry := domain.WaitlistEntry{
		ID:        s.genID.Generate(),
		ClassID:   cid,
		UserID:    userID,
		Note:      strings.TrimSpace(note),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.AddWaitlistEntry(ctx, entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyOnWaitlist
		}
		return nil, err
	}
	return &entry, nil
}

func (s *service) LeaveWaitlist(ctx context.Context, userID snowflake.ID, studioID, classID string) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return err
	}
	return s.repo.RemoveWaitlistEntry(ctx, cid, userID)
}

func (s *service) ListWaitlist(ctx context.Context, studioID, classID string) ([]domain.WaitlistRow, error) {
	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClass(ctx, sid, cid); err != nil {
		return nil, err
	}
	return s.repo.ListWaitlist(ctx, cid)
}

func (s *service) ExportRoster(ctx context.Context, studioID, classID string) (io.Reader, error) {
	if s.pdf == nil {
		return nil, domain.ErrRosterNotAvailable
	}

	sid, cid, err := parseStudioClass(studioID, classID)
	if err != nil {
		return nil, err
	}

	studio, err := s.studioRepo.GetStudio(ctx, sid)
	if err != nil {
		return nil, err
	}
	class, err := s.repo.GetClass(ctx, sid, cid)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListWaitlist(ctx, cid)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	data := pdf.RosterData{
		StudioName:  studio.Name,
		ClassTitle:  class.Title,
		GeneratedAt: now.Format(time.RFC1123),
		Rows:        make([]pdf.RosterRow, 0, len(entries)),
	}
	for _, entry := range entries {
		data.Rows = append(data.Rows, pdf.RosterRow{
			DisplayName: entry.DisplayName,
			Email:       entry.Email,
			Role:        "waitlist",
			Note:        entry.Note,
			JoinedAt:    entry.CreatedAt.Format("2006-01-02"),
		})
	}

	reader, err := s.pdf.GenerateRoster(ctx, data)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRosterExport(ctx, sid.String())
	}
	s.auditEvent(ctx, &sid, "roster.exported", "class", cid.String(), nil)
	return reader, nil
}

func (s *service) auditEvent(ctx context.Context, studioID *snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, studioID, "user", nil, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}

func classResponse(class *domain.Class) *domain.ClassResponse {
	resp := &domain.ClassResponse{
		ID:              class.ID.String(),
		StudioID:        class.StudioID.String(),
		Title:           class.Title,
		Summary:         class.Summary,
		Description:     class.Description,
		SkillLevel:      class.SkillLevel,
		Techniques:      []string(class.Techniques),
		Capacity:        class.Capacity,
		DurationMinutes: class.DurationMinutes,
		Schedule:        map[string]any(class.Schedule),
		Thumbnail:       class.Thumbnail,
		Status:          class.Status,
		CreatedAt:       class.CreatedAt,
		UpdatedAt:       class.UpdatedAt,
	}
	if class.LocationID != nil {
		resp.LocationID = class.LocationID.String()
	}
	if class.InstructorID != nil {
		resp.InstructorID = class.InstructorID.String()
	}
	return resp
}

func normalizeTechniques(raw []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(raw))
	seen := map[string]bool{}
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func parseStudioClass(studioID, classID string) (snowflake.ID, snowflake.ID, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return 0, 0, domain.ErrInvalidStudio
	}
	cid, err := parseID(classID)
	if err != nil {
		return 0, 0, domain.ErrInvalidClass
	}
	return sid, cid, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
