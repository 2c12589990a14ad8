package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	authrepository "github.com/throwclay/throwclay/internal/auth/repository"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/invite/domain"
	"github.com/throwclay/throwclay/internal/invite/repository"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	studiorepository "github.com/throwclay/throwclay/internal/studio/repository"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newTestEnv(t *testing.T, limits config.StudioLimits) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	err = dbConn.AutoMigrate(
		&authdomain.User{},
		&studiodomain.Studio{},
		&studiodomain.StudioLocation{},
		&studiodomain.StudioMembership{},
		&domain.StudioInvite{},
		&domain.MembershipApplication{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	err = dbConn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_studio_invites_pending_email
		ON studio_invites (studio_id, email) WHERE status = 'pending'`).Error
	if err != nil {
		t.Fatalf("failed to create partial index: %v", err)
	}
	err = dbConn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_membership_applications_pending
		ON membership_applications (studio_id, user_id, COALESCE(location_id, 0)) WHERE status = 'pending'`).Error
	if err != nil {
		t.Fatalf("failed to create partial index: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	userRepo, _ := authrepository.New(dbConn)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:         dbConn,
		Log:        zap.NewNop(),
		Repo:       repository.NewRepository(dbConn),
		StudioRepo: studiorepository.NewRepository(dbConn),
		UserRepo:   userRepo,
		GenID:      node,
		Clock:      fakeClock,
		Limits:     config.NewStaticStudioLimitsHolder(limits),
	})
	return &testEnv{svc: svc, db: dbConn, node: node, clock: fakeClock}
}

func (e *testEnv) seedStudio(t *testing.T) studiodomain.Studio {
	t.Helper()
	now := e.clock.Now()
	studio := studiodomain.Studio{
		ID:        e.node.Generate(),
		Name:      "Test Studio",
		Slug:      "test-studio-" + e.node.Generate().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.db.Create(&studio).Error; err != nil {
		t.Fatalf("failed to seed studio: %v", err)
	}
	return studio
}

func (e *testEnv) seedLocation(t *testing.T, studioID snowflake.ID, label string) studiodomain.StudioLocation {
	t.Helper()
	now := e.clock.Now()
	loc := studiodomain.StudioLocation{
		ID:        e.node.Generate(),
		StudioID:  studioID,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.db.Create(&loc).Error; err != nil {
		t.Fatalf("failed to seed location: %v", err)
	}
	return loc
}

func (e *testEnv) seedUser(t *testing.T, email string) authdomain.User {
	t.Helper()
	now := e.clock.Now()
	user := authdomain.User{
		ID:        e.node.Generate(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestAcceptInviteCreatesMembership(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")
	invitee := env.seedUser(t, "potter@example.com")

	created, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "Potter@Example.com",
		Role:  "instructor",
	})
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}
	if created.Email != "potter@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.Token == "" {
		t.Fatal("expected token on creation response")
	}

	result, err := env.svc.AcceptInvite(context.Background(), invitee.ID, created.Token)
	if err != nil {
		t.Fatalf("failed to accept invite: %v", err)
	}
	if result.Role != "instructor" {
		t.Fatalf("expected instructor role, got %q", result.Role)
	}

	var member studiodomain.StudioMembership
	err = env.db.First(&member, "studio_id = ? AND user_id = ?", studio.ID, invitee.ID).Error
	if err != nil {
		t.Fatalf("expected membership: %v", err)
	}
	if member.Role != "instructor" {
		t.Fatalf("expected instructor membership, got %q", member.Role)
	}

	_, err = env.svc.AcceptInvite(context.Background(), invitee.ID, created.Token)
	if err != domain.ErrInviteNotPending {
		t.Fatalf("expected ErrInviteNotPending on second accept, got %v", err)
	}
}

func TestAcceptInviteEmailMismatch(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")
	other := env.seedUser(t, "someone-else@example.com")

	created, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "potter@example.com",
		Role:  "member",
	})
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}

	_, err = env.svc.AcceptInvite(context.Background(), other.ID, created.Token)
	if err != domain.ErrEmailMismatch {
		t.Fatalf("expected ErrEmailMismatch, got %v", err)
	}
}

func TestAcceptInviteExpired(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")
	invitee := env.seedUser(t, "potter@example.com")

	created, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "potter@example.com",
		Role:  "member",
	})
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}

	env.clock.Advance(15 * 24 * time.Hour)

	_, err = env.svc.AcceptInvite(context.Background(), invitee.ID, created.Token)
	if err != domain.ErrInviteExpired {
		t.Fatalf("expected ErrInviteExpired, got %v", err)
	}

	var invite domain.StudioInvite
	if err := env.db.First(&invite, "token = ?", created.Token).Error; err != nil {
		t.Fatalf("failed to load invite: %v", err)
	}
	if invite.Status != domain.StatusExpired {
		t.Fatalf("expected expired status, got %q", invite.Status)
	}
}

func TestRevokeInviteOnlyFromPending(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")
	invitee := env.seedUser(t, "potter@example.com")

	created, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "potter@example.com",
		Role:  "member",
	})
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}

	if _, err := env.svc.AcceptInvite(context.Background(), invitee.ID, created.Token); err != nil {
		t.Fatalf("failed to accept invite: %v", err)
	}

	err = env.svc.RevokeInvite(context.Background(), studio.ID.String(), created.ID)
	if err != domain.ErrInviteNotPending {
		t.Fatalf("expected ErrInviteNotPending, got %v", err)
	}
}

func TestDuplicatePendingInvite(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")

	_, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "potter@example.com",
		Role:  "member",
	})
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}

	_, err = env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "potter@example.com",
		Role:  "employee",
	})
	if err != domain.ErrPendingInviteExists {
		t.Fatalf("expected ErrPendingInviteExists, got %v", err)
	}
}

func TestPendingInviteLimit(t *testing.T) {
	limits := config.DefaultStudioLimits()
	limits.MaxPendingInvites = 1
	env := newTestEnv(t, limits)
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")

	_, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "first@example.com",
		Role:  "member",
	})
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}

	_, err = env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "second@example.com",
		Role:  "member",
	})
	if err != domain.ErrInviteLimit {
		t.Fatalf("expected ErrInviteLimit, got %v", err)
	}
}

func TestCreateInviteRejectsOwnerRole(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")

	_, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email: "potter@example.com",
		Role:  "owner",
	})
	if err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAcceptInviteCarriesLocationAndType(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	loc := env.seedLocation(t, studio.ID, "Kiln Yard")
	inviter := env.seedUser(t, "owner@example.com")
	invitee := env.seedUser(t, "potter@example.com")

	created, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email:          "potter@example.com",
		Role:           "member",
		LocationID:     loc.ID.String(),
		MembershipType: "Wheel",
	})
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}
	if created.LocationID != loc.ID.String() {
		t.Fatalf("expected location %s on response, got %q", loc.ID, created.LocationID)
	}
	if created.MembershipType != "wheel" {
		t.Fatalf("expected normalized membership type, got %q", created.MembershipType)
	}

	if _, err := env.svc.AcceptInvite(context.Background(), invitee.ID, created.Token); err != nil {
		t.Fatalf("failed to accept invite: %v", err)
	}

	var member studiodomain.StudioMembership
	err = env.db.First(&member, "studio_id = ? AND user_id = ?", studio.ID, invitee.ID).Error
	if err != nil {
		t.Fatalf("expected membership: %v", err)
	}
	if member.LocationID == nil || *member.LocationID != loc.ID {
		t.Fatalf("expected membership at location %s, got %v", loc.ID, member.LocationID)
	}
	if member.MembershipType != "wheel" {
		t.Fatalf("expected wheel membership type, got %q", member.MembershipType)
	}

	var invite domain.StudioInvite
	if err := env.db.First(&invite, "token = ?", created.Token).Error; err != nil {
		t.Fatalf("failed to load invite: %v", err)
	}
	if invite.AcceptedBy == nil || *invite.AcceptedBy != invitee.ID {
		t.Fatalf("expected acceptor %s recorded on invite, got %v", invitee.ID, invite.AcceptedBy)
	}
	if invite.AcceptedAt == nil {
		t.Fatal("expected accepted_at recorded on invite")
	}
}

func TestInviteAllowsStudioMemberAtNewLocation(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	loc := env.seedLocation(t, studio.ID, "Annex")
	inviter := env.seedUser(t, "owner@example.com")
	invitee := env.seedUser(t, "potter@example.com")

	now := env.clock.Now()
	existing := studiodomain.StudioMembership{
		ID:        env.node.Generate(),
		StudioID:  studio.ID,
		UserID:    invitee.ID,
		Role:      studiodomain.RoleMember,
		Status:    studiodomain.MembershipActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := env.db.Create(&existing).Error; err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}

	created, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email:      "potter@example.com",
		Role:       "instructor",
		LocationID: loc.ID.String(),
	})
	if err != nil {
		t.Fatalf("expected invite for a new location, got %v", err)
	}
	if _, err := env.svc.AcceptInvite(context.Background(), invitee.ID, created.Token); err != nil {
		t.Fatalf("failed to accept invite: %v", err)
	}

	var count int64
	err = env.db.Model(&studiodomain.StudioMembership{}).
		Where("studio_id = ? AND user_id = ?", studio.ID, invitee.ID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count memberships: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected studio-wide and location memberships, got %d", count)
	}
}

func TestCreateInviteRejectsUnknownLocation(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	inviter := env.seedUser(t, "owner@example.com")

	_, err := env.svc.CreateInvite(context.Background(), inviter.ID, studio.ID.String(), domain.CreateInviteRequest{
		Email:      "potter@example.com",
		Role:       "member",
		LocationID: env.node.Generate().String(),
	})
	if err != domain.ErrInvalidLocation {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestApplicationApproveCreatesMembership(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	studio := env.seedStudio(t)
	applicant := env.seedUser(t, "applicant@example.com")
	decider := env.seedUser(t, "manager@example.com")

	app, err := env.svc.Apply(context.Background(), applicant.ID, studio.ID.String(), domain.ApplyRequest{
		Message: "I throw every weekend.",
	})
	if err != nil {
		t.Fatalf("failed to apply: %v", err)
	}

	err = env.svc.DecideApplication(context.Background(), decider.ID, studio.ID.String(), app.ID, domain.DecideApplicationRequest{Approve: true})
	if err != nil {
		t.Fatalf("failed to approve application: %v", err)
	}

	var member studiodomain.StudioMembership
	err = env.db.First(&member, "studio_id = ? AND user_id = ?", studio.ID, applicant.ID).Error
	if err != nil {
		t.Fatalf("expected membership: %v", err)
	}
	if member.Role != studiodomain.RoleMember {
		t.Fatalf("expected member role, got %q", member.Role)
	}

	err = env.svc.DecideApplication(context.Background(), decider.ID, studio.ID.String(), app.ID, domain.DecideApplicationRequest{Approve: false})
	if err != domain.ErrApplicationNotPending {
		t.Fatalf("expected ErrApplicationNotPending, got %v", err)
	}
}
