package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
	classrepository "github.com/throwclay/throwclay/internal/class/repository"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/review/domain"
	"github.com/throwclay/throwclay/internal/review/repository"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	studiorepository "github.com/throwclay/throwclay/internal/studio/repository"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type testEnv struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	studio studiodomain.Studio
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	err = dbConn.AutoMigrate(
		&authdomain.User{},
		&studiodomain.Studio{},
		&studiodomain.StudioMembership{},
		&domain.Review{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	for _, stmt := range []string{
		// The techniques column is a Postgres array; sqlite stores the
		// encoded literal as plain text.
		`CREATE TABLE classes (
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
		)`,
		`CREATE UNIQUE INDEX uq_reviews_studio_author ON reviews (studio_id, author_id) WHERE class_id IS NULL`,
		`CREATE UNIQUE INDEX uq_reviews_class_author ON reviews (class_id, author_id) WHERE class_id IS NOT NULL`,
	} {
		if err := dbConn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to prepare schema: %v", err)
		}
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
		ClassRepo:  classrepository.NewRepository(dbConn),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
	})

	studio := studiodomain.Studio{
		ID:   node.Generate(),
		Name: "Mud and Fire Pottery",
		Slug: "mud-and-fire-pottery",
	}
	if err := dbConn.Create(&studio).Error; err != nil {
		t.Fatalf("failed to seed studio: %v", err)
	}

	return &testEnv{svc: svc, db: dbConn, node: node, studio: studio}
}

func (e *testEnv) seedMember(t *testing.T, email string) snowflake.ID {
	t.Helper()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	user := authdomain.User{
		ID:          e.node.Generate(),
		Email:       email,
		DisplayName: email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	member := studiodomain.StudioMembership{
		ID:        e.node.Generate(),
		StudioID:  e.studio.ID,
		UserID:    user.ID,
		Role:      studiodomain.RoleMember,
		Status:    studiodomain.MembershipActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.db.Create(&member).Error; err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}
	return user.ID
}

func (e *testEnv) seedClass(t *testing.T, title string) snowflake.ID {
	t.Helper()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	class := classdomain.Class{
		ID:         e.node.Generate(),
		StudioID:   e.studio.ID,
		Title:      title,
		Techniques: pq.StringArray{},
		Schedule:   datatypes.JSONMap{},
		Status:     classdomain.StatusPublished,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.db.Create(&class).Error; err != nil {
		t.Fatalf("failed to seed class: %v", err)
	}
	return class.ID
}

func TestCreateReviewRequiresMembership(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), env.node.Generate(), env.studio.ID.String(), domain.CreateReviewRequest{
		Rating: 5,
	})
	if err != domain.ErrNotMember {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestCreateReviewValidatesRating(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedMember(t, "maya@example.com")

	for _, rating := range []int{0, 6, -1} {
		_, err := env.svc.Create(context.Background(), author, env.studio.ID.String(), domain.CreateReviewRequest{
			Rating: rating,
		})
		if err != domain.ErrInvalidRating {
			t.Fatalf("expected ErrInvalidRating for %d, got %v", rating, err)
		}
	}
}

func TestDuplicateReviewRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedMember(t, "maya@example.com")

	if _, err := env.svc.Create(ctx, author, env.studio.ID.String(), domain.CreateReviewRequest{Rating: 4, Body: "great wheels"}); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}
	_, err := env.svc.Create(ctx, author, env.studio.ID.String(), domain.CreateReviewRequest{Rating: 5})
	if err != domain.ErrAlreadyReviewed {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}

	// A class review by the same author is a separate thing.
	classID := env.seedClass(t, "Intro to Wheel")
	if _, err := env.svc.Create(ctx, author, env.studio.ID.String(), domain.CreateReviewRequest{ClassID: classID.String(), Rating: 5}); err != nil {
		t.Fatalf("failed to create class review: %v", err)
	}
	_, err = env.svc.Create(ctx, author, env.studio.ID.String(), domain.CreateReviewRequest{ClassID: classID.String(), Rating: 3})
	if err != domain.ErrAlreadyReviewed {
		t.Fatalf("expected ErrAlreadyReviewed for class, got %v", err)
	}
}

func TestClassReviewSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	classID := env.seedClass(t, "Glaze Chemistry")
	first := env.seedMember(t, "maya@example.com")
	second := env.seedMember(t, "theo@example.com")

	if _, err := env.svc.Create(ctx, first, env.studio.ID.String(), domain.CreateReviewRequest{ClassID: classID.String(), Rating: 5, Title: "Loved it"}); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}
	if _, err := env.svc.Create(ctx, second, env.studio.ID.String(), domain.CreateReviewRequest{ClassID: classID.String(), Rating: 2}); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}

	resp, err := env.svc.ListClassReviews(ctx, env.studio.ID.String(), classID.String())
	if err != nil {
		t.Fatalf("failed to list reviews: %v", err)
	}
	if len(resp.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(resp.Reviews))
	}
	if resp.Summary.Count != 2 {
		t.Fatalf("expected count 2, got %d", resp.Summary.Count)
	}
	if resp.Summary.Average != 3.5 {
		t.Fatalf("expected average 3.5, got %v", resp.Summary.Average)
	}
}

func TestUpdateReviewAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedMember(t, "maya@example.com")
	other := env.seedMember(t, "theo@example.com")

	review, err := env.svc.Create(ctx, author, env.studio.ID.String(), domain.CreateReviewRequest{Rating: 3, Body: "fine"})
	if err != nil {
		t.Fatalf("failed to create review: %v", err)
	}

	rating := 4
	if _, err := env.svc.Update(ctx, other, env.studio.ID.String(), review.ID.String(), domain.UpdateReviewRequest{Rating: &rating}); err != domain.ErrNotAuthor {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}

	updated, err := env.svc.Update(ctx, author, env.studio.ID.String(), review.ID.String(), domain.UpdateReviewRequest{Rating: &rating})
	if err != nil {
		t.Fatalf("failed to update review: %v", err)
	}
	if updated.Rating != 4 {
		t.Fatalf("expected rating 4, got %d", updated.Rating)
	}
}

func TestDeleteReviewAuthorOrModerator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedMember(t, "maya@example.com")
	other := env.seedMember(t, "theo@example.com")

	review, err := env.svc.Create(ctx, author, env.studio.ID.String(), domain.CreateReviewRequest{Rating: 1, Body: "broken kiln"})
	if err != nil {
		t.Fatalf("failed to create review: %v", err)
	}

	if err := env.svc.Delete(ctx, other, env.studio.ID.String(), review.ID.String(), false); err != domain.ErrNotAuthor {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if err := env.svc.Delete(ctx, other, env.studio.ID.String(), review.ID.String(), true); err != nil {
		t.Fatalf("expected moderator delete to succeed, got %v", err)
	}

	if err := env.svc.Delete(ctx, author, env.studio.ID.String(), review.ID.String(), false); err != domain.ErrReviewNotFound {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
}
