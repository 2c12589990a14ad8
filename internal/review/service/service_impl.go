package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/throwclay/throwclay/internal/audit/domain"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/review/domain"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	StudioRepo studiodomain.Repository
	ClassRepo  classdomain.Repository
	GenID      *snowflake.Node
	Clock      clock.Clock
	Audit      auditdomain.Service `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	studioRepo studiodomain.Repository
	classRepo  classdomain.Repository
	genID      *snowflake.Node
	clock      clock.Clock
	audit      auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("review"),
		repo:       p.Repo,
		studioRepo: p.StudioRepo,
		classRepo:  p.ClassRepo,
		genID:      p.GenID,
		clock:      p.Clock,
		audit:      p.Audit,
	}
}

func (s *service) Create(ctx context.Context, authorID snowflake.ID, studioID string, req domain.CreateReviewRequest) (*domain.Review, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	member, err := s.studioRepo.GetMembership(ctx, sid, authorID)
	if err != nil {
		if err == studiodomain.ErrMemberNotFound {
			return nil, domain.ErrNotMember
		}
		return nil, err
	}
	if member.Status != studiodomain.MembershipActive {
		return nil, domain.ErrNotMember
	}

	var classID *snowflake.ID
	if raw := strings.TrimSpace(req.ClassID); raw != "" {
		cid, err := parseID(raw)
		if err != nil {
			return nil, domain.ErrInvalidClass
		}
		if _, err := s.classRepo.GetClass(ctx, sid, cid); err != nil {
			return nil, err
		}
		classID = &cid
	}

	now := s.clock.Now()
	review := domain.Review{
		ID:        s.genID.Generate(),
		StudioID:  sid,
		ClassID:   classID,
		AuthorID:  authorID,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyReviewed
		}
		return nil, err
	}

	s.auditEvent(ctx, &sid, authorID, "review.created", review.ID.String(), map[string]any{
		"rating": req.Rating,
	})
	return &review, nil
}

func (s *service) ListStudioReviews(ctx context.Context, studioID string) (*domain.ReviewListResponse, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	reviews, err := s.repo.ListByStudio(ctx, sid)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.RatingSummary(ctx, sid, nil)
	if err != nil {
		return nil, err
	}
	return &domain.ReviewListResponse{Reviews: reviews, Summary: *summary}, nil
}

func (s *service) ListClassReviews(ctx context.Context, studioID, classID string) (*domain.ReviewListResponse, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}
	cid, err := parseID(classID)
	if err != nil {
		return nil, domain.ErrInvalidClass
	}
	if _, err := s.classRepo.GetClass(ctx, sid, cid); err != nil {
		return nil, err
	}

	reviews, err := s.repo.ListByClass(ctx, cid)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.RatingSummary(ctx, sid, &cid)
	if err != nil {
		return nil, err
	}
	return &domain.ReviewListResponse{Reviews: reviews, Summary: *summary}, nil
}

func (s *service) Update(ctx context.Context, authorID snowflake.ID, studioID, reviewID string, req domain.UpdateReviewRequest) (*domain.Review, error) {
	sid, rid, err := parseStudioReview(studioID, reviewID)
	if err != nil {
		return nil, err
	}

	review, err := s.repo.Get(ctx, sid, rid)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != authorID {
		return nil, domain.ErrNotAuthor
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, domain.ErrInvalidRating
		}
		fields["rating"] = *req.Rating
	}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		fields["body"] = strings.TrimSpace(*req.Body)
	}

	if err := s.repo.Update(ctx, rid, fields); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, sid, rid)
}

func (s *service) Delete(ctx context.Context, actorID snowflake.ID, studioID, reviewID string, moderator bool) error {
	sid, rid, err := parseStudioReview(studioID, reviewID)
	if err != nil {
		return err
	}

	review, err := s.repo.Get(ctx, sid, rid)
	if err != nil {
		return err
	}
	if review.AuthorID != actorID && !moderator {
		return domain.ErrNotAuthor
	}

	if err := s.repo.Delete(ctx, sid, rid); err != nil {
		return err
	}

	s.auditEvent(ctx, &sid, actorID, "review.deleted", rid.String(), nil)
	return nil
}

func (s *service) auditEvent(ctx context.Context, studioID *snowflake.ID, actorID snowflake.ID, action, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	actor := actorID.String()
	if err := s.audit.AuditLog(ctx, studioID, "user", &actor, action, "review", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}

func parseStudioReview(studioID, reviewID string) (snowflake.ID, snowflake.ID, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return 0, 0, domain.ErrInvalidStudio
	}
	rid, err := parseID(reviewID)
	if err != nil {
		return 0, 0, domain.ErrInvalidReview
	}
	return sid, rid, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
