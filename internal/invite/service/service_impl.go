package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/throwclay/throwclay/internal/audit/domain"
	"github.com/throwclay/throwclay/internal/audit/masking"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/invite/domain"
	"github.com/throwclay/throwclay/internal/observability/metrics"
	"github.com/throwclay/throwclay/internal/providers/email"
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
	UserRepo   authdomain.Repository
	GenID      *snowflake.Node
	Clock      clock.Clock
	Limits     *config.StudioLimitsHolder
	Cfg        config.Config
	Audit      auditdomain.Service `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
	Email      email.Provider      `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	studioRepo studiodomain.Repository
	userRepo   authdomain.Repository
	genID      *snowflake.Node
	clock      clock.Clock
	limits     *config.StudioLimitsHolder
	cfg        config.Config
	audit      auditdomain.Service
	metrics    *metrics.Metrics
	email      email.Provider
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("invite"),
		repo:       p.Repo,
		studioRepo: p.StudioRepo,
		userRepo:   p.UserRepo,
		genID:      p.GenID,
		clock:      p.Clock,
		limits:     p.Limits,
		cfg:        p.Cfg,
		audit:      p.Audit,
		metrics:    p.Metrics,
		email:      p.Email,
	}
}

func (s *service) CreateInvite(ctx context.Context, inviterID snowflake.ID, studioID string, req domain.CreateInviteRequest) (*domain.InviteResponse, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !studiodomain.ValidRole(role) || role == studiodomain.RoleOwner {
		return nil, domain.ErrInvalidRole
	}

	locationID, err := s.resolveLocation(ctx, sid, req.LocationID)
	if err != nil {
		return nil, err
	}

	// An existing member at this location never needs an invite.
	if user, err := s.userRepo.FindOne(ctx, authdomain.User{Email: email}); err == nil {
		if _, err := s.studioRepo.GetMembershipAtLocation(ctx, sid, user.ID, locationID); err == nil {
			return nil, domain.ErrAlreadyMember
		}
	}

	limits := s.limits.Get()
	pending, err := s.repo.CountPendingInvites(ctx, sid)
	if err != nil {
		return nil, err
	}
	if pending >= int64(limits.MaxPendingInvites) {
		return nil, domain.ErrInviteLimit
	}

	now := s.clock.Now()
	expiresAt := now.AddDate(0, 0, limits.InviteExpiryDays)
	invite := domain.StudioInvite{
		ID:             s.genID.Generate(),
		StudioID:       sid,
		Email:          email,
		Role:           role,
		LocationID:     locationID,
		MembershipType: strings.ToLower(strings.TrimSpace(req.MembershipType)),
		Token:          ulid.Make().String(),
		Status:         domain.StatusPending,
		InvitedBy:      &inviterID,
		Note:           strings.TrimSpace(req.Note),
		ExpiresAt:      &expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateInvite(ctx, invite); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPendingInviteExists
		}
		return nil, err
	}

	s.recordInvite(ctx, "created")
	s.auditEvent(ctx, &sid, "invite.created", "invite", invite.ID.String(), map[string]any{
		"email": masking.MaskEmail(email),
		"role":  role,
	})
	s.sendInviteEmail(ctx, &invite, inviterID)

	resp := inviteResponse(&invite)
	resp.Token = invite.Token
	return resp, nil
}

func (s *service) sendInviteEmail(ctx context.Context, invite *domain.StudioInvite, inviterID snowflake.ID) {
	if s.email == nil {
		return
	}

	data := map[string]any{
		"role":       invite.Role,
		"note":       invite.Note,
		"invite_url": s.cfg.PublicBaseURL + "/invites/" + invite.Token,
	}
	if invite.ExpiresAt != nil {
		data["expires_at"] = invite.ExpiresAt.Format("January 2, 2006")
	}
	if studio, err := s.studioRepo.GetStudio(ctx, invite.StudioID); err == nil {
		data["studio_name"] = studio.Name
	}
	if inviter, err := s.userRepo.FindByID(ctx, inviterID); err == nil {
		data["inviter_name"] = inviter.DisplayName
	}

	if err := s.email.SendTemplate(ctx, []string{invite.Email}, "invite_member", data); err != nil {
		s.log.Warn("failed to send invite email", zap.Error(err))
	}
}

func (s *service) ListInvites(ctx context.Context, studioID, status string) ([]domain.InviteResponse, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	invites, err := s.repo.ListInvites(ctx, sid, strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}

	resp := make([]domain.InviteResponse, 0, len(invites))
	for i := range invites {
		resp = append(resp, *inviteResponse(&invites[i]))
	}
	return resp, nil
}

func (s *service) GetInviteByToken(ctx context.Context, token string) (*domain.InviteResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidInvite
	}

	invite, err := s.repo.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return inviteResponse(invite), nil
}

func (s *service) RevokeInvite(ctx context.Context, studioID, inviteID string) error {
	sid, err := parseID(studioID)
	if err != nil {
		return domain.ErrInvalidStudio
	}
	iid, err := parseID(inviteID)
	if err != nil {
		return domain.ErrInvalidInvite
	}

	invite, err := s.repo.GetInviteByID(ctx, sid, iid)
	if err != nil {
		return err
	}
	if invite.Status != domain.StatusPending {
		return domain.ErrInviteNotPending
	}

	now := s.clock.Now()
	err = s.repo.UpdateInvite(ctx, iid, map[string]any{
		"status":     domain.StatusRevoked,
		"revoked_at": now,
		"updated_at": now,
	})
	if err != nil {
		return err
	}

	s.recordInvite(ctx, "revoked")
	s.auditEvent(ctx, &sid, "invite.revoked", "invite", iid.String(), map[string]any{
		"email": masking.MaskEmail(invite.Email),
	})
	return nil
}

func (s *service) AcceptInvite(ctx context.Context, userID snowflake.ID, token string) (*domain.AcceptInviteResult, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidInvite
	}

	invite, err := s.repo.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invite.Status != domain.StatusPending {
		return nil, domain.ErrInviteNotPending
	}

	now := s.clock.Now()
	if invite.ExpiresAt != nil && now.After(*invite.ExpiresAt) {
		_ = s.repo.UpdateInvite(ctx, invite.ID, map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": now,
		})
		return nil, domain.ErrInviteExpired
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(user.Email, invite.Email) {
		return nil, domain.ErrEmailMismatch
	}

	var rejoining *studiodomain.StudioMembership
	existing, err := s.studioRepo.GetMembershipAtLocation(ctx, invite.StudioID, userID, invite.LocationID)
	switch {
	case err == nil && existing.Status != studiodomain.MembershipInactive:
		return nil, domain.ErrAlreadyMember
	case err == nil:
		// Former members keep their row; accepting an invite reactivates it.
		rejoining = existing
	case !errors.Is(err, studiodomain.ErrMemberNotFound):
		return nil, err
	}

	limits := s.limits.Get()
	count, err := s.studioRepo.CountActiveMembers(ctx, invite.StudioID)
	if err != nil {
		return nil, err
	}
	if count >= int64(limits.MaxMembers) {
		return nil, domain.ErrMemberLimit
	}

	membershipID := s.genID.Generate()
	if rejoining != nil {
		membershipID = rejoining.ID
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		studioRepo := s.studioRepo.WithTx(tx)
		if rejoining != nil {
			err := studioRepo.UpdateMembershipByID(ctx, rejoining.ID, map[string]any{
				"role":            invite.Role,
				"status":          studiodomain.MembershipActive,
				"membership_type": invite.MembershipType,
				"joined_at":       now,
				"updated_at":      now,
			})
			if err != nil {
				return err
			}
		} else {
			member := studiodomain.StudioMembership{
				ID:             membershipID,
				StudioID:       invite.StudioID,
				UserID:         userID,
				LocationID:     invite.LocationID,
				Role:           invite.Role,
				Status:         studiodomain.MembershipActive,
				MembershipType: invite.MembershipType,
				JoinedAt:       now,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := studioRepo.AddMembership(ctx, member); err != nil {
				return err
			}
		}

		return s.repo.WithTx(tx).UpdateInvite(ctx, invite.ID, map[string]any{
			"status":      domain.StatusAccepted,
			"accepted_by": userID,
			"accepted_at": now,
			"updated_at":  now,
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, err
	}

	s.recordInvite(ctx, "accepted")
	s.recordMembership(ctx, "joined", invite.Role)
	s.auditEvent(ctx, &invite.StudioID, "invite.accepted", "invite", invite.ID.String(), map[string]any{
		"email":   masking.MaskEmail(invite.Email),
		"role":    invite.Role,
		"user_id": userID.String(),
	})

	return &domain.AcceptInviteResult{
		StudioID:     invite.StudioID.String(),
		MembershipID: membershipID.String(),
		Role:         invite.Role,
	}, nil
}

func (s *service) RejectInvite(ctx context.Context, userID snowflake.ID, token string) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidInvite
	}

	invite, err := s.repo.GetInviteByToken(ctx, token)
	if err != nil {
		return err
	}
	if invite.Status != domain.StatusPending {
		return domain.ErrInviteNotPending
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(user.Email, invite.Email) {
		return domain.ErrEmailMismatch
	}

	now := s.clock.Now()
	err = s.repo.UpdateInvite(ctx, invite.ID, map[string]any{
		"status":      domain.StatusRejected,
		"rejected_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return err
	}

	s.recordInvite(ctx, "rejected")
	s.auditEvent(ctx, &invite.StudioID, "invite.rejected", "invite", invite.ID.String(), map[string]any{
		"email": masking.MaskEmail(invite.Email),
	})
	return nil
}

func (s *service) Apply(ctx context.Context, userID snowflake.ID, studioID string, req domain.ApplyRequest) (*domain.ApplicationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	if _, err := s.studioRepo.GetStudio(ctx, sid); err != nil {
		return nil, err
	}

	locationID, err := s.resolveLocation(ctx, sid, req.LocationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.studioRepo.GetMembershipAtLocation(ctx, sid, userID, locationID); err == nil {
		return nil, domain.ErrAlreadyMember
	} else if !errors.Is(err, studiodomain.ErrMemberNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	app := domain.MembershipApplication{
		ID:             s.genID.Generate(),
		StudioID:       sid,
		UserID:         userID,
		LocationID:     locationID,
		MembershipType: strings.ToLower(strings.TrimSpace(req.MembershipType)),
		Message:        strings.TrimSpace(req.Message),
		Status:         domain.ApplicationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPendingApplicationExists
		}
		return nil, err
	}

	s.auditEvent(ctx, &sid, "application.submitted", "application", app.ID.String(), map[string]any{
		"user_id": userID.String(),
	})
	return applicationResponse(&app), nil
}

func (s *service) ListApplications(ctx context.Context, studioID, status string) ([]domain.ApplicationResponse, error) {
	sid, err := parseID(studioID)
	if err != nil {
		return nil, domain.ErrInvalidStudio
	}

	apps, err := s.repo.ListApplications(ctx, sid, strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}

	resp := make([]domain.ApplicationResponse, 0, len(apps))
	for i := range apps {
		resp = append(resp, *applicationResponse(&apps[i]))
	}
	return resp, nil
}

func (s *service) DecideApplication(ctx context.Context, deciderID snowflake.ID, studioID, applicationID string, req domain.DecideApplicationRequest) error {
	sid, err := parseID(studioID)
	if err != nil {
		return domain.ErrInvalidStudio
	}
	aid, err := parseID(applicationID)
	if err != nil {
		return domain.ErrApplicationNotFound
	}

	app, err := s.repo.GetApplication(ctx, sid, aid)
	if err != nil {
		return err
	}
	if app.Status != domain.ApplicationPending {
		return domain.ErrApplicationNotPending
	}

	now := s.clock.Now()
	if !req.Approve {
		err = s.repo.UpdateApplication(ctx, aid, map[string]any{
			"status":     domain.ApplicationRejected,
			"decided_by": deciderID,
			"decided_at": now,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		s.auditEvent(ctx, &sid, "application.rejected", "application", aid.String(), map[string]any{
			"user_id": app.UserID.String(),
		})
		return nil
	}

	limits := s.limits.Get()
	count, err := s.studioRepo.CountActiveMembers(ctx, sid)
	if err != nil {
		return err
	}
	if count >= int64(limits.MaxMembers) {
		return domain.ErrMemberLimit
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member := studiodomain.StudioMembership{
			ID:             s.genID.Generate(),
			StudioID:       sid,
			UserID:         app.UserID,
			LocationID:     app.LocationID,
			Role:           studiodomain.RoleMember,
			Status:         studiodomain.MembershipActive,
			MembershipType: app.MembershipType,
			JoinedAt:       now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.studioRepo.WithTx(tx).AddMembership(ctx, member); err != nil {
			return err
		}

		return s.repo.WithTx(tx).UpdateApplication(ctx, aid, map[string]any{
			"status":     domain.ApplicationApproved,
			"decided_by": deciderID,
			"decided_at": now,
			"updated_at": now,
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrAlreadyMember
		}
		return err
	}

	s.recordMembership(ctx, "joined", studiodomain.RoleMember)
	s.auditEvent(ctx, &sid, "application.approved", "application", aid.String(), map[string]any{
		"user_id": app.UserID.String(),
	})
	return nil
}

func (s *service) auditEvent(ctx context.Context, studioID *snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, studioID, "user", nil, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}

func (s *service) recordInvite(ctx context.Context, action string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordInviteEvent(ctx, action)
}

func (s *service) recordMembership(ctx context.Context, action, role string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordMembershipEvent(ctx, action, role)
}

func inviteResponse(invite *domain.StudioInvite) *domain.InviteResponse {
	resp := &domain.InviteResponse{
		ID:             invite.ID.String(),
		StudioID:       invite.StudioID.String(),
		Email:          invite.Email,
		Role:           invite.Role,
		MembershipType: invite.MembershipType,
		Status:         invite.Status,
		Note:           invite.Note,
		ExpiresAt:      invite.ExpiresAt,
		CreatedAt:      invite.CreatedAt,
	}
	if invite.LocationID != nil {
		resp.LocationID = invite.LocationID.String()
	}
	return resp
}

func applicationResponse(app *domain.MembershipApplication) *domain.ApplicationResponse {
	resp := &domain.ApplicationResponse{
		ID:             app.ID.String(),
		StudioID:       app.StudioID.String(),
		UserID:         app.UserID.String(),
		MembershipType: app.MembershipType,
		Message:        app.Message,
		Status:         app.Status,
		DecidedAt:      app.DecidedAt,
		CreatedAt:      app.CreatedAt,
	}
	if app.LocationID != nil {
		resp.LocationID = app.LocationID.String()
	}
	return resp
}

// resolveLocation validates an optional location id against the studio.
func (s *service) resolveLocation(ctx context.Context, studioID snowflake.ID, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	lid, err := parseID(raw)
	if err != nil {
		return nil, domain.ErrInvalidLocation
	}
	if _, err := s.studioRepo.GetLocation(ctx, studioID, lid); err != nil {
		if errors.Is(err, studiodomain.ErrLocationNotFound) {
			return nil, domain.ErrInvalidLocation
		}
		return nil, err
	}
	return &lid, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
