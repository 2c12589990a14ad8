package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/messaging/domain"
	"github.com/throwclay/throwclay/internal/observability/metrics"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
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
	Metrics    *metrics.Metrics `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	studioRepo studiodomain.Repository
	genID      *snowflake.Node
	clock      clock.Clock
	limits     *config.StudioLimitsHolder
	metrics    *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("messaging"),
		repo:       p.Repo,
		studioRepo: p.StudioRepo,
		genID:      p.GenID,
		clock:      p.Clock,
		limits:     p.Limits,
		metrics:    p.Metrics,
	}
}

func (s *service) CreateConversation(ctx context.Context, creatorID snowflake.ID, req domain.CreateConversationRequest) (*domain.ConversationResponse, error) {
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = domain.KindDirect
	}
	if !domain.ValidKind(kind) {
		return nil, domain.ErrInvalidKind
	}

	var studioID *snowflake.ID
	if raw := strings.TrimSpace(req.StudioID); raw != "" {
		sid, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidStudio
		}
		if _, err := s.studioRepo.GetStudio(ctx, sid); err != nil {
			return nil, err
		}
		studioID = &sid
	}
	if kind == domain.KindStudio && studioID == nil {
		return nil, domain.ErrInvalidStudio
	}

	members, err := s.resolveParticipants(creatorID, req.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	if kind == domain.KindDirect && len(members) != 2 {
		return nil, domain.ErrInvalidParticipants
	}
	if len(members) < 2 {
		return nil, domain.ErrInvalidParticipants
	}

	// Everyone in a studio-scoped conversation must belong to the studio.
	if studioID != nil {
		for _, uid := range members {
			member, err := s.studioRepo.GetMembership(ctx, *studioID, uid)
			if err != nil {
				if err == studiodomain.ErrMemberNotFound {
					return nil, domain.ErrInvalidParticipants
				}
				return nil, err
			}
			if member.Status != studiodomain.MembershipActive {
				return nil, domain.ErrInvalidParticipants
			}
		}
	}

	now := s.clock.Now()
	conv := domain.Conversation{
		ID:        s.genID.Generate(),
		StudioID:  studioID,
		Topic:     strings.TrimSpace(req.Topic),
		Kind:      kind,
		CreatedBy: &creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateConversation(ctx, conv); err != nil {
			return err
		}
		for _, uid := range members {
			participant := domain.Participant{
				ID:             s.genID.Generate(),
				ConversationID: conv.ID,
				UserID:         uid,
				JoinedAt:       now,
			}
			if err := repo.AddParticipant(ctx, participant); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := s.conversationResponse(&conv, members, 0)
	return resp, nil
}

func (s *service) ListConversations(ctx context.Context, userID snowflake.ID) ([]domain.ConversationResponse, error) {
	convs, err := s.repo.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConversationResponse, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		participants, err := s.repo.ListParticipants(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		unread, err := s.repo.CountUnread(ctx, conv.ID, userID)
		if err != nil {
			return nil, err
		}
		ids := make([]snowflake.ID, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.UserID)
		}
		out = append(out, *s.conversationResponse(conv, ids, unread))
	}
	return out, nil
}

func (s *service) SendMessage(ctx context.Context, senderID snowflake.ID, conversationID string, req domain.SendMessageRequest) (*domain.MessageResponse, error) {
	cid, err := parseID(conversationID)
	if err != nil {
		return nil, domain.ErrInvalidConversation
	}

	conv, err := s.repo.GetConversation(ctx, cid)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetParticipant(ctx, cid, senderID); err != nil {
		return nil, err
	}

	body := strings.TrimSpace(req.Body)
	if body == "" && len(req.Attachments) == 0 {
		return nil, domain.ErrEmptyMessage
	}
	attachments, err := encodeAttachments(req.Attachments)
	if err != nil {
		return nil, domain.ErrInvalidMessage
	}

	now := s.clock.Now()
	msg := domain.Message{
		ID:             s.genID.Generate(),
		ConversationID: cid,
		SenderID:       senderID,
		Body:           body,
		Attachments:    attachments,
		CreatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateMessage(ctx, msg); err != nil {
			return err
		}
		return repo.TouchConversation(ctx, cid, now)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMessageSent(ctx, conv.Kind)
	}
	return messageResponse(&msg), nil
}

func (s *service) ListMessages(ctx context.Context, userID snowflake.ID, conversationID, beforeID string, limit int) ([]domain.MessageResponse, error) {
	cid, err := parseID(conversationID)
	if err != nil {
		return nil, domain.ErrInvalidConversation
	}
	if _, err := s.repo.GetParticipant(ctx, cid, userID); err != nil {
		return nil, err
	}

	var before snowflake.ID
	if raw := strings.TrimSpace(beforeID); raw != "" {
		before, err = snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidMessage
		}
	}

	pageSize := s.limits.Get().MessagePageSize
	if limit <= 0 || limit > pageSize {
		limit = pageSize
	}

	msgs, err := s.repo.ListMessages(ctx, cid, before, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, *messageResponse(&msgs[i]))
	}
	return out, nil
}

func (s *service) EditMessage(ctx context.Context, userID snowflake.ID, conversationID, messageID string, body string) (*domain.MessageResponse, error) {
	cid, mid, err := parseConversationMessage(conversationID, messageID)
	if err != nil {
		return nil, err
	}

	msg, err := s.repo.GetMessage(ctx, cid, mid)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, domain.ErrNotSender
	}
	if msg.DeletedAt != nil {
		return nil, domain.ErrMessageDeleted
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}

	now := s.clock.Now()
	err = s.repo.UpdateMessage(ctx, mid, map[string]any{
		"body":      body,
		"edited_at": now,
	})
	if err != nil {
		return nil, err
	}

	msg.Body = body
	msg.EditedAt = &now
	return messageResponse(msg), nil
}

func (s *service) DeleteMessage(ctx context.Context, userID snowflake.ID, conversationID, messageID string) error {
	cid, mid, err := parseConversationMessage(conversationID, messageID)
	if err != nil {
		return err
	}

	msg, err := s.repo.GetMessage(ctx, cid, mid)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return domain.ErrNotSender
	}
	if msg.DeletedAt != nil {
		return domain.ErrMessageDeleted
	}

	return s.repo.UpdateMessage(ctx, mid, map[string]any{
		"body":       "",
		"deleted_at": s.clock.Now(),
	})
}

func (s *service) MarkRead(ctx context.Context, userID snowflake.ID, conversationID string) (int, error) {
	cid, err := parseID(conversationID)
	if err != nil {
		return 0, domain.ErrInvalidConversation
	}
	if _, err := s.repo.GetParticipant(ctx, cid, userID); err != nil {
		return 0, err
	}

	ids, err := s.repo.ListUnreadMessageIDs(ctx, cid, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	now := s.clock.Now()
	reads := make([]domain.MessageRead, 0, len(ids))
	for _, id := range ids {
		reads = append(reads, domain.MessageRead{
			ID:        s.genID.Generate(),
			MessageID: id,
			UserID:    userID,
			ReadAt:    now,
		})
	}
	if err := s.repo.CreateReads(ctx, reads); err != nil {
		return 0, err
	}
	return len(reads), nil
}

func (s *service) resolveParticipants(creatorID snowflake.ID, raw []string) ([]snowflake.ID, error) {
	seen := map[snowflake.ID]bool{creatorID: true}
	out := []snowflake.ID{creatorID}
	for _, r := range raw {
		id, err := snowflake.ParseString(strings.TrimSpace(r))
		if err != nil {
			return nil, domain.ErrInvalidParticipants
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func (s *service) conversationResponse(conv *domain.Conversation, participants []snowflake.ID, unread int64) *domain.ConversationResponse {
	resp := &domain.ConversationResponse{
		ID:          conv.ID.String(),
		Topic:       conv.Topic,
		Kind:        conv.Kind,
		UnreadCount: unread,
		CreatedAt:   conv.CreatedAt,
		UpdatedAt:   conv.UpdatedAt,
	}
	if conv.StudioID != nil {
		resp.StudioID = conv.StudioID.String()
	}
	resp.Participants = make([]string, 0, len(participants))
	for _, id := range participants {
		resp.Participants = append(resp.Participants, id.String())
	}
	return resp
}

func messageResponse(msg *domain.Message) *domain.MessageResponse {
	resp := &domain.MessageResponse{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Body:           msg.Body,
		Deleted:        msg.DeletedAt != nil,
		CreatedAt:      msg.CreatedAt,
		EditedAt:       msg.EditedAt,
	}
	if msg.DeletedAt != nil {
		resp.Body = ""
		return resp
	}
	if len(msg.Attachments) > 0 {
		var attachments []domain.Attachment
		if err := json.Unmarshal(msg.Attachments, &attachments); err == nil {
			resp.Attachments = attachments
		}
	}
	return resp
}

func encodeAttachments(attachments []domain.Attachment) (datatypes.JSON, error) {
	if len(attachments) == 0 {
		return datatypes.JSON("[]"), nil
	}
	for _, a := range attachments {
		if strings.TrimSpace(a.URL) == "" {
			return nil, domain.ErrInvalidMessage
		}
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func parseConversationMessage(conversationID, messageID string) (snowflake.ID, snowflake.ID, error) {
	cid, err := parseID(conversationID)
	if err != nil {
		return 0, 0, domain.ErrInvalidConversation
	}
	mid, err := parseID(messageID)
	if err != nil {
		return 0, 0, domain.ErrInvalidMessage
	}
	return cid, mid, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
