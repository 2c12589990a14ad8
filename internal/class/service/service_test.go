package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/class/domain"
	"github.com/throwclay/throwclay/internal/class/repository"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/providers/pdf"
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
	studio studiodomain.Studio
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
		&domain.ClassImage{},
		&domain.PricingTier{},
		&domain.WaitlistEntry{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	// The techniques column is a Postgres array; sqlite stores the
	// encoded literal as plain text.
	err = dbConn.Exec(`CREATE TABLE classes (
		id INTEGER PRIMARY KEY,
		studio_id INTEGER NOT NULL,
		location_id INTEGER,
		instructor_id INTEGER,
		title TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		skill_level TEXT NOT NULL DEFAULT 'all_levels',
		techniques TEXT NOT NULL DEFAULT '{}',
		capacity INTEGER NOT NULL DEFAULT 0,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		schedule TEXT NOT NULL DEFAULT '{}',
		thumbnail TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at DATETIME,
		updated_at DATETIME
	)`).Error
	if err != nil {
		t.Fatalf("failed to create classes table: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := NewService(Params{
		DB:         dbConn,
		Log:        zap.NewNop(),
		Repo:       repository.NewRepository(dbConn),
		StudioRepo: studiorepository.NewRepository(dbConn),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Limits:     config.NewStaticStudioLimitsHolder(limits),
		PDF:        pdf.New(),
	})

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	studio := studiodomain.Studio{
		ID:        node.Generate(),
		Name:      "Test Studio",
		Slug:      "test-studio",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := dbConn.Create(&studio).Error; err != nil {
		t.Fatalf("failed to seed studio: %v", err)
	}

	return &testEnv{svc: svc, db: dbConn, node: node, studio: studio}
}

func (e *testEnv) createClass(t *testing.T, title string) *domain.ClassResponse {
	t.Helper()
	resp, err := e.svc.Create(context.Background(), e.studio.ID.String(), domain.CreateClassRequest{
		Title:      title,
		SkillLevel: "beginner",
		Techniques: []string{"Wheel Throwing", "wheel throwing", "Glazing"},
		Capacity:   10,
	})
	if err != nil {
		t.Fatalf("failed to create class: %v", err)
	}
	return resp
}

func (e *testEnv) classThumbnail(t *testing.T, classID string) string {
	t.Helper()
	var thumbnail string
	err := e.db.Model(&domain.Class{}).Select("thumbnail").Where("id = ?", classID).Scan(&thumbnail).Error
	if err != nil {
		t.Fatalf("failed to load thumbnail: %v", err)
	}
	return thumbnail
}

func (e *testEnv) publish(t *testing.T, classID string) {
	t.Helper()
	status := domain.StatusPublished
	if _, err := e.svc.Update(context.Background(), e.studio.ID.String(), classID, domain.UpdateClassRequest{Status: &status}); err != nil {
		t.Fatalf("failed to publish class: %v", err)
	}
}

func TestCreateClassNormalizesTechniques(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	resp := env.createClass(t, "Intro to Wheel")

	if resp.Status != domain.StatusDraft {
		t.Fatalf("expected draft status, got %q", resp.Status)
	}
	if len(resp.Techniques) != 2 {
		t.Fatalf("expected deduped techniques, got %v", resp.Techniques)
	}
	if resp.Techniques[0] != "wheel throwing" || resp.Techniques[1] != "glazing" {
		t.Fatalf("unexpected techniques %v", resp.Techniques)
	}
}

func TestPublishLimit(t *testing.T) {
	limits := config.DefaultStudioLimits()
	limits.MaxActiveClasses = 1
	env := newTestEnv(t, limits)

	first := env.createClass(t, "First")
	second := env.createClass(t, "Second")
	env.publish(t, first.ID)

	status := domain.StatusPublished
	_, err := env.svc.Update(context.Background(), env.studio.ID.String(), second.ID, domain.UpdateClassRequest{Status: &status})
	if err != domain.ErrClassLimit {
		t.Fatalf("expected ErrClassLimit, got %v", err)
	}
}

func TestFirstImageBecomesMain(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	class := env.createClass(t, "Handbuilding")

	first, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/1.jpg"})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}
	if !first.IsMain {
		t.Fatal("expected first image to be main")
	}

	second, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/2.jpg"})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}
	if second.IsMain {
		t.Fatal("expected second image not to be main")
	}
	if got := env.classThumbnail(t, class.ID); got != first.URL {
		t.Fatalf("expected thumbnail %q, got %q", first.URL, got)
	}
}

func TestSetMainImageKeepsExactlyOne(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	class := env.createClass(t, "Handbuilding")

	first, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/1.jpg"})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}
	second, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/2.jpg"})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}

	if err := env.svc.SetMainImage(context.Background(), env.studio.ID.String(), class.ID, second.ID.String()); err != nil {
		t.Fatalf("failed to set main image: %v", err)
	}

	var mainCount int64
	err = env.db.Model(&domain.ClassImage{}).Where("class_id = ? AND is_main", first.ClassID).Count(&mainCount).Error
	if err != nil {
		t.Fatalf("failed to count main images: %v", err)
	}
	if mainCount != 1 {
		t.Fatalf("expected exactly one main image, got %d", mainCount)
	}

	var reloaded domain.ClassImage
	if err := env.db.First(&reloaded, "id = ?", second.ID).Error; err != nil {
		t.Fatalf("failed to reload image: %v", err)
	}
	if !reloaded.IsMain {
		t.Fatal("expected second image to be main")
	}
	if got := env.classThumbnail(t, class.ID); got != second.URL {
		t.Fatalf("expected thumbnail %q, got %q", second.URL, got)
	}
}

func TestDeleteMainImagePromotesEarliest(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	class := env.createClass(t, "Handbuilding")

	first, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/1.jpg", Position: 1})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}
	second, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/2.jpg", Position: 2})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}

	if err := env.svc.DeleteImage(context.Background(), env.studio.ID.String(), class.ID, first.ID.String()); err != nil {
		t.Fatalf("failed to delete main image: %v", err)
	}

	var reloaded domain.ClassImage
	if err := env.db.First(&reloaded, "id = ?", second.ID).Error; err != nil {
		t.Fatalf("failed to reload image: %v", err)
	}
	if !reloaded.IsMain {
		t.Fatal("expected remaining image to be promoted to main")
	}
	if got := env.classThumbnail(t, class.ID); got != second.URL {
		t.Fatalf("expected thumbnail %q, got %q", second.URL, got)
	}

	if err := env.svc.DeleteImage(context.Background(), env.studio.ID.String(), class.ID, second.ID.String()); err != nil {
		t.Fatalf("failed to delete last image: %v", err)
	}
	if got := env.classThumbnail(t, class.ID); got != "" {
		t.Fatalf("expected empty thumbnail after last delete, got %q", got)
	}
}

func TestPromotionFollowsCreationOrderNotPosition(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	class := env.createClass(t, "Raku Night")

	first, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/a.jpg", Position: 3})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}
	second, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/b.jpg", Position: 2})
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}
	if _, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/c.jpg", Position: 1}); err != nil {
		t.Fatalf("failed to add image: %v", err)
	}

	if err := env.svc.DeleteImage(context.Background(), env.studio.ID.String(), class.ID, first.ID.String()); err != nil {
		t.Fatalf("failed to delete main image: %v", err)
	}

	// The oldest surviving image wins even when a newer one sorts
	// lower by position.
	var reloaded domain.ClassImage
	if err := env.db.First(&reloaded, "id = ?", second.ID).Error; err != nil {
		t.Fatalf("failed to reload image: %v", err)
	}
	if !reloaded.IsMain {
		t.Fatal("expected oldest remaining image to be promoted to main")
	}
	if got := env.classThumbnail(t, class.ID); got != second.URL {
		t.Fatalf("expected thumbnail %q, got %q", second.URL, got)
	}
}

func TestImageLimit(t *testing.T) {
	limits := config.DefaultStudioLimits()
	limits.MaxImagesPerClass = 1
	env := newTestEnv(t, limits)
	class := env.createClass(t, "Handbuilding")

	if _, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/1.jpg"}); err != nil {
		t.Fatalf("failed to add image: %v", err)
	}

	_, err := env.svc.AddImage(context.Background(), env.studio.ID.String(), class.ID, domain.ImageRequest{URL: "https://img.example/2.jpg"})
	if err != domain.ErrImageLimit {
		t.Fatalf("expected ErrImageLimit, got %v", err)
	}
}

func TestFirstTierBecomesDefaultAndPromotion(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	class := env.createClass(t, "Glaze Chemistry")

	first, err := env.svc.CreateTier(context.Background(), env.studio.ID.String(), class.ID, domain.TierRequest{
		Name:       "Drop-in",
		PriceCents: 4500,
	})
	if err != nil {
		t.Fatalf("failed to create tier: %v", err)
	}
	if !first.IsDefault {
		t.Fatal("expected first tier to be default")
	}

	second, err := env.svc.CreateTier(context.Background(), env.studio.ID.String(), class.ID, domain.TierRequest{
		Name:       "Monthly",
		PriceCents: 16000,
	})
	if err != nil {
		t.Fatalf("failed to create tier: %v", err)
	}
	if second.IsDefault {
		t.Fatal("expected second tier not to be default")
	}

	if err := env.svc.SetDefaultTier(context.Background(), env.studio.ID.String(), class.ID, second.ID.String()); err != nil {
		t.Fatalf("failed to set default tier: %v", err)
	}

	var defaultCount int64
	err = env.db.Model(&domain.PricingTier{}).Where("class_id = ? AND is_default", first.ClassID).Count(&defaultCount).Error
	if err != nil {
		t.Fatalf("failed to count default tiers: %v", err)
	}
	if defaultCount != 1 {
		t.Fatalf("expected exactly one default tier, got %d", defaultCount)
	}

	if err := env.svc.DeleteTier(context.Background(), env.studio.ID.String(), class.ID, second.ID.String()); err != nil {
		t.Fatalf("failed to delete default tier: %v", err)
	}

	var reloaded domain.PricingTier
	if err := env.db.First(&reloaded, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("failed to reload tier: %v", err)
	}
	if !reloaded.IsDefault {
		t.Fatal("expected remaining tier to be promoted to default")
	}
}

func TestJoinWaitlistRequiresPublished(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	class := env.createClass(t, "Raku Firing")
	userID := env.node.Generate()

	_, err := env.svc.JoinWaitlist(context.Background(), userID, env.studio.ID.String(), class.ID, "")
	if err != domain.ErrClassNotPublished {
		t.Fatalf("expected ErrClassNotPublished, got %v", err)
	}

	env.publish(t, class.ID)

	if _, err := env.svc.JoinWaitlist(context.Background(), userID, env.studio.ID.String(), class.ID, "evenings only"); err != nil {
		t.Fatalf("failed to join waitlist: %v", err)
	}

	_, err = env.svc.JoinWaitlist(context.Background(), userID, env.studio.ID.String(), class.ID, "")
	if err != domain.ErrAlreadyOnWaitlist {
		t.Fatalf("expected ErrAlreadyOnWaitlist, got %v", err)
	}
}

func TestExportRoster(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	class := env.createClass(t, "Raku Firing")
	env.publish(t, class.ID)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	user := authdomain.User{
		ID:          env.node.Generate(),
		Email:       "potter@example.com",
		DisplayName: "Potter",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if _, err := env.svc.JoinWaitlist(context.Background(), user.ID, env.studio.ID.String(), class.ID, "first timer"); err != nil {
		t.Fatalf("failed to join waitlist: %v", err)
	}

	reader, err := env.svc.ExportRoster(context.Background(), env.studio.ID.String(), class.ID)
	if err != nil {
		t.Fatalf("failed to export roster: %v", err)
	}
	if reader == nil {
		t.Fatal("expected roster PDF reader")
	}
}
