package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/kiln/domain"
	"github.com/throwclay/throwclay/internal/kiln/repository"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	studiorepository "github.com/throwclay/throwclay/internal/studio/repository"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	studio studiodomain.Studio
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	err = dbConn.AutoMigrate(
		&studiodomain.Studio{},
		&domain.Kiln{},
		&domain.Firing{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:         dbConn,
		Log:        zap.NewNop(),
		Repo:       repository.NewRepository(dbConn),
		StudioRepo: studiorepository.NewRepository(dbConn),
		GenID:      node,
		Clock:      fake,
	})

	studio := studiodomain.Studio{
		ID:   node.Generate(),
		Name: "Mud and Fire Pottery",
		Slug: "mud-and-fire-pottery",
	}
	if err := dbConn.Create(&studio).Error; err != nil {
		t.Fatalf("failed to seed studio: %v", err)
	}

	return &testEnv{svc: svc, db: dbConn, node: node, clock: fake, studio: studio}
}

func (e *testEnv) createKiln(t *testing.T, req domain.KilnRequest) *domain.Kiln {
	t.Helper()
	kiln, err := e.svc.CreateKiln(context.Background(), e.studio.ID.String(), req)
	if err != nil {
		t.Fatalf("failed to create kiln: %v", err)
	}
	return kiln
}

func TestCreateKilnDefaults(t *testing.T) {
	env := newTestEnv(t)

	kiln := env.createKiln(t, domain.KilnRequest{Name: "  Big Blue  ", MaxTempC: 1280})
	if kiln.Name != "Big Blue" {
		t.Fatalf("expected trimmed name, got %q", kiln.Name)
	}
	if kiln.KilnType != "electric" {
		t.Fatalf("expected default kiln type electric, got %q", kiln.KilnType)
	}
	if kiln.Status != domain.KilnStatusOperational {
		t.Fatalf("expected default status operational, got %q", kiln.Status)
	}

	_, err := env.svc.CreateKiln(context.Background(), env.studio.ID.String(), domain.KilnRequest{Name: "Odd", KilnType: "microwave"})
	if err != domain.ErrInvalidKilnType {
		t.Fatalf("expected ErrInvalidKilnType, got %v", err)
	}
}

func TestScheduleFiringRejectsOverlap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kiln := env.createKiln(t, domain.KilnRequest{Name: "Raku Pit", KilnType: "raku"})
	user := env.node.Generate()

	start := env.clock.Now().Add(24 * time.Hour)
	end := start.Add(10 * time.Hour)
	_, err := env.svc.ScheduleFiring(ctx, user, env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		FiringType: "glaze",
		Cone:       "6",
		StartsAt:   start,
		EndsAt:     &end,
	})
	if err != nil {
		t.Fatalf("failed to schedule firing: %v", err)
	}

	overlapStart := start.Add(5 * time.Hour)
	_, err = env.svc.ScheduleFiring(ctx, user, env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		StartsAt: overlapStart,
	})
	if err != domain.ErrFiringOverlap {
		t.Fatalf("expected ErrFiringOverlap, got %v", err)
	}

	// Back to back is fine.
	_, err = env.svc.ScheduleFiring(ctx, user, env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		StartsAt: end,
	})
	if err != nil {
		t.Fatalf("expected adjacent firing to schedule, got %v", err)
	}
}

func TestScheduleFiringRequiresOperationalKiln(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kiln := env.createKiln(t, domain.KilnRequest{Name: "Old Gas", KilnType: "gas", Status: domain.KilnStatusMaintenance})

	_, err := env.svc.ScheduleFiring(ctx, env.node.Generate(), env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		StartsAt: env.clock.Now().Add(time.Hour),
	})
	if err != domain.ErrKilnNotOperational {
		t.Fatalf("expected ErrKilnNotOperational, got %v", err)
	}
}

func TestScheduleFiringValidatesTimeRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kiln := env.createKiln(t, domain.KilnRequest{Name: "Soda"})

	start := env.clock.Now().Add(time.Hour)
	badEnd := start.Add(-time.Minute)
	_, err := env.svc.ScheduleFiring(ctx, env.node.Generate(), env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		StartsAt: start,
		EndsAt:   &badEnd,
	})
	if err != domain.ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}

	_, err = env.svc.ScheduleFiring(ctx, env.node.Generate(), env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{})
	if err != domain.ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for zero start, got %v", err)
	}
}

func TestUpdateFiringStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kiln := env.createKiln(t, domain.KilnRequest{Name: "Big Electric"})
	user := env.node.Generate()

	firing, err := env.svc.ScheduleFiring(ctx, user, env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		FiringType: "bisque",
		StartsAt:   env.clock.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to schedule firing: %v", err)
	}

	err = env.svc.UpdateFiringStatus(ctx, env.studio.ID.String(), kiln.ID.String(), firing.ID.String(), domain.FiringCompleted)
	if err != domain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for scheduled->completed, got %v", err)
	}

	err = env.svc.UpdateFiringStatus(ctx, env.studio.ID.String(), kiln.ID.String(), firing.ID.String(), domain.FiringInProgress)
	if err != nil {
		t.Fatalf("failed to start firing: %v", err)
	}
	env.clock.Advance(9 * time.Hour)
	err = env.svc.UpdateFiringStatus(ctx, env.studio.ID.String(), kiln.ID.String(), firing.ID.String(), domain.FiringCompleted)
	if err != nil {
		t.Fatalf("failed to complete firing: %v", err)
	}

	var stored domain.Firing
	if err := env.db.First(&stored, "id = ?", firing.ID).Error; err != nil {
		t.Fatalf("failed to load firing: %v", err)
	}
	if stored.Status != domain.FiringCompleted {
		t.Fatalf("expected completed, got %q", stored.Status)
	}
	if stored.EndsAt == nil {
		t.Fatalf("expected ends_at to be stamped on completion")
	}

	err = env.svc.UpdateFiringStatus(ctx, env.studio.ID.String(), kiln.ID.String(), firing.ID.String(), domain.FiringCancelled)
	if err != domain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for completed->cancelled, got %v", err)
	}
}

func TestListFiringsFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	kiln := env.createKiln(t, domain.KilnRequest{Name: "Test Kiln"})
	user := env.node.Generate()

	first, err := env.svc.ScheduleFiring(ctx, user, env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		StartsAt: env.clock.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to schedule firing: %v", err)
	}
	_, err = env.svc.ScheduleFiring(ctx, user, env.studio.ID.String(), kiln.ID.String(), domain.FiringRequest{
		StartsAt: env.clock.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to schedule second firing: %v", err)
	}
	if err := env.svc.UpdateFiringStatus(ctx, env.studio.ID.String(), kiln.ID.String(), first.ID.String(), domain.FiringCancelled); err != nil {
		t.Fatalf("failed to cancel firing: %v", err)
	}

	scheduled, err := env.svc.ListFirings(ctx, env.studio.ID.String(), kiln.ID.String(), domain.FiringScheduled)
	if err != nil {
		t.Fatalf("failed to list firings: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("expected 1 scheduled firing, got %d", len(scheduled))
	}

	all, err := env.svc.ListFirings(ctx, env.studio.ID.String(), kiln.ID.String(), "")
	if err != nil {
		t.Fatalf("failed to list all firings: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 firings, got %d", len(all))
	}
}
