package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/messaging/domain"
	"github.com/throwclay/throwclay/internal/messaging/repository"
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

func newTestEnv(t *testing.T, limits config.StudioLimits) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	err = dbConn.AutoMigrate(
		&authdomain.User{},
		&studiodomain.Studio{},
		&studiodomain.StudioMembership{},
		&domain.Conversation{},
		&domain.Participant{},
		&domain.Message{},
		&domain.MessageRead{},
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
		Limits:     config.NewStaticStudioLimitsHolder(limits),
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

func (e *testEnv) seedUser(t *testing.T, email string) snowflake.ID {
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
	return user.ID
}

func (e *testEnv) seedMember(t *testing.T, email string) snowflake.ID {
	t.Helper()
	userID := e.seedUser(t, email)
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	member := studiodomain.StudioMembership{
		ID:        e.node.Generate(),
		StudioID:  e.studio.ID,
		UserID:    userID,
		Role:      studiodomain.RoleMember,
		Status:    studiodomain.MembershipActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.db.Create(&member).Error; err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}
	return userID
}

func (e *testEnv) directConversation(t *testing.T, a, b snowflake.ID) string {
	t.Helper()
	conv, err := e.svc.CreateConversation(context.Background(), a, domain.CreateConversationRequest{
		Kind:           domain.KindDirect,
		ParticipantIDs: []string{b.String()},
	})
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
	return conv.ID
}

func TestDirectConversationNeedsExactlyTwo(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	ctx := context.Background()
	creator := env.seedUser(t, "maya@example.com")
	other := env.seedUser(t, "theo@example.com")
	third := env.seedUser(t, "noa@example.com")

	_, err := env.svc.CreateConversation(ctx, creator, domain.CreateConversationRequest{Kind: domain.KindDirect})
	if err != domain.ErrInvalidParticipants {
		t.Fatalf("expected ErrInvalidParticipants, got %v", err)
	}

	_, err = env.svc.CreateConversation(ctx, creator, domain.CreateConversationRequest{
		Kind:           domain.KindDirect,
		ParticipantIDs: []string{other.String(), third.String()},
	})
	if err != domain.ErrInvalidParticipants {
		t.Fatalf("expected ErrInvalidParticipants for three people, got %v", err)
	}

	conv, err := env.svc.CreateConversation(ctx, creator, domain.CreateConversationRequest{
		Kind:           domain.KindDirect,
		ParticipantIDs: []string{other.String()},
	})
	if err != nil {
		t.Fatalf("failed to create direct conversation: %v", err)
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(conv.Participants))
	}
}

func TestStudioConversationRequiresMembership(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	ctx := context.Background()
	staff := env.seedMember(t, "owner@example.com")
	member := env.seedMember(t, "maya@example.com")
	outsider := env.seedUser(t, "stranger@example.com")

	_, err := env.svc.CreateConversation(ctx, staff, domain.CreateConversationRequest{
		Kind:           domain.KindStudio,
		StudioID:       env.studio.ID.String(),
		ParticipantIDs: []string{outsider.String()},
	})
	if err != domain.ErrInvalidParticipants {
		t.Fatalf("expected ErrInvalidParticipants, got %v", err)
	}

	_, err = env.svc.CreateConversation(ctx, staff, domain.CreateConversationRequest{
		Kind: domain.KindStudio,
	})
	if err != domain.ErrInvalidStudio {
		t.Fatalf("expected ErrInvalidStudio without studio, got %v", err)
	}

	conv, err := env.svc.CreateConversation(ctx, staff, domain.CreateConversationRequest{
		Kind:           domain.KindStudio,
		StudioID:       env.studio.ID.String(),
		Topic:          "Kiln night",
		ParticipantIDs: []string{member.String()},
	})
	if err != nil {
		t.Fatalf("failed to create studio conversation: %v", err)
	}
	if conv.StudioID != env.studio.ID.String() {
		t.Fatalf("expected studio id on conversation, got %q", conv.StudioID)
	}
}

func TestSendMessageParticipantOnly(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	ctx := context.Background()
	a := env.seedUser(t, "maya@example.com")
	b := env.seedUser(t, "theo@example.com")
	outsider := env.seedUser(t, "stranger@example.com")
	convID := env.directConversation(t, a, b)

	_, err := env.svc.SendMessage(ctx, outsider, convID, domain.SendMessageRequest{Body: "hi"})
	if err != domain.ErrNotParticipant {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	_, err = env.svc.SendMessage(ctx, a, convID, domain.SendMessageRequest{Body: "   "})
	if err != domain.ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	msg, err := env.svc.SendMessage(ctx, a, convID, domain.SendMessageRequest{
		Body: "glaze results are in",
		Attachments: []domain.Attachment{
			{URL: "https://files.example/results.jpg", ContentType: "image/jpeg"},
		},
	})
	if err != nil {
		t.Fatalf("failed to send message: %v", err)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(msg.Attachments))
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	ctx := context.Background()
	a := env.seedUser(t, "maya@example.com")
	b := env.seedUser(t, "theo@example.com")
	convID := env.directConversation(t, a, b)

	for _, body := range []string{"one", "two", "three"} {
		if _, err := env.svc.SendMessage(ctx, a, convID, domain.SendMessageRequest{Body: body}); err != nil {
			t.Fatalf("failed to send message: %v", err)
		}
	}

	convs, err := env.svc.ListConversations(ctx, b)
	if err != nil {
		t.Fatalf("failed to list conversations: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if convs[0].UnreadCount != 3 {
		t.Fatalf("expected 3 unread, got %d", convs[0].UnreadCount)
	}

	marked, err := env.svc.MarkRead(ctx, b, convID)
	if err != nil {
		t.Fatalf("failed to mark read: %v", err)
	}
	if marked != 3 {
		t.Fatalf("expected 3 marked, got %d", marked)
	}

	marked, err = env.svc.MarkRead(ctx, b, convID)
	if err != nil {
		t.Fatalf("failed to mark read twice: %v", err)
	}
	if marked != 0 {
		t.Fatalf("expected 0 on second pass, got %d", marked)
	}

	convs, err = env.svc.ListConversations(ctx, b)
	if err != nil {
		t.Fatalf("failed to list conversations: %v", err)
	}
	if convs[0].UnreadCount != 0 {
		t.Fatalf("expected 0 unread after mark, got %d", convs[0].UnreadCount)
	}
}

func TestListMessagesKeysetPagination(t *testing.T) {
	limits := config.DefaultStudioLimits()
	limits.MessagePageSize = 2
	env := newTestEnv(t, limits)
	ctx := context.Background()
	a := env.seedUser(t, "maya@example.com")
	b := env.seedUser(t, "theo@example.com")
	convID := env.directConversation(t, a, b)

	for _, body := range []string{"one", "two", "three", "four", "five"} {
		if _, err := env.svc.SendMessage(ctx, a, convID, domain.SendMessageRequest{Body: body}); err != nil {
			t.Fatalf("failed to send message: %v", err)
		}
	}

	page, err := env.svc.ListMessages(ctx, b, convID, "", 0)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(page))
	}
	if page[0].Body != "five" || page[1].Body != "four" {
		t.Fatalf("expected newest first, got %q then %q", page[0].Body, page[1].Body)
	}

	next, err := env.svc.ListMessages(ctx, b, convID, page[1].ID, 0)
	if err != nil {
		t.Fatalf("failed to list next page: %v", err)
	}
	if len(next) != 2 {
		t.Fatalf("expected 2 messages on next page, got %d", len(next))
	}
	if next[0].Body != "three" || next[1].Body != "two" {
		t.Fatalf("expected continuation, got %q then %q", next[0].Body, next[1].Body)
	}
}

func TestEditAndDeleteSenderOnly(t *testing.T) {
	env := newTestEnv(t, config.DefaultStudioLimits())
	ctx := context.Background()
	a := env.seedUser(t, "maya@example.com")
	b := env.seedUser(t, "theo@example.com")
	convID := env.directConversation(t, a, b)

	msg, err := env.svc.SendMessage(ctx, a, convID, domain.SendMessageRequest{Body: "draft"})
	if err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	if _, err := env.svc.EditMessage(ctx, b, convID, msg.ID, "hijack"); err != domain.ErrNotSender {
		t.Fatalf("expected ErrNotSender, got %v", err)
	}

	edited, err := env.svc.EditMessage(ctx, a, convID, msg.ID, "final wording")
	if err != nil {
		t.Fatalf("failed to edit message: %v", err)
	}
	if edited.Body != "final wording" || edited.EditedAt == nil {
		t.Fatalf("expected edit to apply, got %+v", edited)
	}

	if err := env.svc.DeleteMessage(ctx, b, convID, msg.ID); err != domain.ErrNotSender {
		t.Fatalf("expected ErrNotSender on delete, got %v", err)
	}
	if err := env.svc.DeleteMessage(ctx, a, convID, msg.ID); err != nil {
		t.Fatalf("failed to delete message: %v", err)
	}

	if _, err := env.svc.EditMessage(ctx, a, convID, msg.ID, "too late"); err != domain.ErrMessageDeleted {
		t.Fatalf("expected ErrMessageDeleted, got %v", err)
	}

	page, err := env.svc.ListMessages(ctx, a, convID, "", 0)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 message, got %d", len(page))
	}
	if !page[0].Deleted || page[0].Body != "" {
		t.Fatalf("expected tombstone, got %+v", page[0])
	}
}
