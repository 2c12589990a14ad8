package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/studio/domain"
	"github.com/throwclay/throwclay/internal/studio/repository"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	err = dbConn.AutoMigrate(
		&authdomain.User{},
		&domain.Studio{},
		&domain.StudioLocation{},
		&domain.StudioMembership{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := NewService(Params{
		DB:     dbConn,
		Log:    zap.NewNop(),
		Repo:   repository.NewRepository(dbConn),
		GenID:  node,
		Clock:  clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Limits: config.NewStaticStudioLimitsHolder(config.DefaultStudioLimits()),
	})
	return svc, dbConn, node
}

func TestCreateStudioAddsOwnerMembership(t *testing.T) {
	svc, dbConn, node := newTestService(t)
	userID := node.Generate()

	resp, err := svc.Create(context.Background(), userID, domain.CreateStudioRequest{
		Name:         "Mud & Fire Pottery",
		ContactEmail: "Hello@MudAndFire.com",
	})
	if err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}
	if resp.Slug != "mud-and-fire-pottery" {
		t.Fatalf("unexpected slug %q", resp.Slug)
	}
	if resp.ContactEmail != "hello@mudandfire.com" {
		t.Fatalf("expected lowercased contact email, got %q", resp.ContactEmail)
	}

	var member domain.StudioMembership
	err = dbConn.First(&member, "user_id = ?", userID).Error
	if err != nil {
		t.Fatalf("expected owner membership: %v", err)
	}
	if member.Role != domain.RoleOwner {
		t.Fatalf("expected owner role, got %q", member.Role)
	}
	if member.Status != domain.MembershipActive {
		t.Fatalf("expected active status, got %q", member.Status)
	}
}

func TestCreateStudioDisambiguatesSlug(t *testing.T) {
	svc, _, node := newTestService(t)

	first, err := svc.Create(context.Background(), node.Generate(), domain.CreateStudioRequest{Name: "Wheel House"})
	if err != nil {
		t.Fatalf("failed to create first studio: %v", err)
	}

	second, err := svc.Create(context.Background(), node.Generate(), domain.CreateStudioRequest{Name: "Wheel House"})
	if err != nil {
		t.Fatalf("failed to create second studio: %v", err)
	}
	if second.Slug == first.Slug {
		t.Fatalf("expected distinct slugs, both got %q", first.Slug)
	}
}

func TestListStudiosByUser(t *testing.T) {
	svc, _, node := newTestService(t)
	userID := node.Generate()

	if _, err := svc.Create(context.Background(), userID, domain.CreateStudioRequest{Name: "Studio A"}); err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}
	if _, err := svc.Create(context.Background(), node.Generate(), domain.CreateStudioRequest{Name: "Studio B"}); err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}

	items, err := svc.ListStudiosByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to list studios: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 studio, got %d", len(items))
	}
	if items[0].Role != domain.RoleOwner {
		t.Fatalf("expected owner role, got %q", items[0].Role)
	}
}

func TestUpdateMemberRoleRejectsLastOwnerDemotion(t *testing.T) {
	svc, _, node := newTestService(t)
	ownerID := node.Generate()

	resp, err := svc.Create(context.Background(), ownerID, domain.CreateStudioRequest{Name: "Glaze Lab"})
	if err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}

	err = svc.UpdateMemberRole(context.Background(), resp.ID, ownerID.String(), domain.UpdateMemberRequest{
		Role: "member",
	})
	if err != domain.ErrLastOwner {
		t.Fatalf("expected ErrLastOwner, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	svc, dbConn, node := newTestService(t)
	ownerID := node.Generate()
	memberID := node.Generate()

	resp, err := svc.Create(context.Background(), ownerID, domain.CreateStudioRequest{Name: "Kiln Collective"})
	if err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}
	studioID, err := snowflake.ParseString(resp.ID)
	if err != nil {
		t.Fatalf("failed to parse studio id: %v", err)
	}

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err = dbConn.Create(&domain.StudioMembership{
		ID:        node.Generate(),
		StudioID:  studioID,
		UserID:    memberID,
		Role:      domain.RoleMember,
		Status:    domain.MembershipActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
	if err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}

	if err := svc.RemoveMember(context.Background(), resp.ID, memberID.String()); err != nil {
		t.Fatalf("failed to remove member: %v", err)
	}

	var removed domain.StudioMembership
	if err := dbConn.First(&removed, "studio_id = ? AND user_id = ?", studioID, memberID).Error; err != nil {
		t.Fatalf("failed to load removed membership: %v", err)
	}
	if removed.Status != domain.MembershipInactive {
		t.Fatalf("expected inactive status, got %q", removed.Status)
	}

	var active int64
	err = dbConn.Model(&domain.StudioMembership{}).
		Where("studio_id = ? AND status = ?", studioID, domain.MembershipActive).
		Count(&active).Error
	if err != nil {
		t.Fatalf("failed to count memberships: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected only the owner membership to stay active, got %d", active)
	}

	err = svc.RemoveMember(context.Background(), resp.ID, ownerID.String())
	if err != domain.ErrLastOwner {
		t.Fatalf("expected ErrLastOwner, got %v", err)
	}
}

func TestLocationLifecycle(t *testing.T) {
	svc, _, node := newTestService(t)

	resp, err := svc.Create(context.Background(), node.Generate(), domain.CreateStudioRequest{Name: "Slip Street"})
	if err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}

	loc, err := svc.CreateLocation(context.Background(), resp.ID, domain.LocationRequest{
		Label: "Main workshop",
		City:  "Portland",
	})
	if err != nil {
		t.Fatalf("failed to create location: %v", err)
	}

	updated, err := svc.UpdateLocation(context.Background(), resp.ID, loc.ID.String(), domain.LocationRequest{
		Label: "Main workshop",
		City:  "Eugene",
	})
	if err != nil {
		t.Fatalf("failed to update location: %v", err)
	}
	if updated.City != "Eugene" {
		t.Fatalf("expected updated city, got %q", updated.City)
	}

	if err := svc.DeleteLocation(context.Background(), resp.ID, loc.ID.String()); err != nil {
		t.Fatalf("failed to delete location: %v", err)
	}

	locs, err := svc.ListLocations(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("failed to list locations: %v", err)
	}
	if len(locs) != 0 {
		t.Fatalf("expected no locations, got %d", len(locs))
	}
}
