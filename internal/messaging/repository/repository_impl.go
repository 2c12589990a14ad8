package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/messaging/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateConversation(ctx context.Context, conv domain.Conversation) error {
	return r.db.WithContext(ctx).Create(&conv).Error
}

func (r *repository) GetConversation(ctx context.Context, conversationID snowflake.ID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).First(&conv, "id = ?", conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *repository) TouchConversation(ctx context.Context, conversationID snowflake.ID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", at).Error
}

func (r *repository) ListConversationsByUser(ctx context.Context, userID snowflake.ID) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := r.db.WithContext(ctx).Raw(
		`SELECT c.*
		 FROM conversations c
		 JOIN conversation_participants p ON p.conversation_id = c.id
		 WHERE p.user_id = ?
		 ORDER BY c.updated_at DESC`,
		userID,
	).Scan(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *repository) AddParticipant(ctx context.Context, participant domain.Participant) error {
	return r.db.WithContext(ctx).Create(&participant).Error
}

func (r *repository) GetParticipant(ctx context.Context, conversationID, userID snowflake.ID) (*domain.Participant, error) {
	var participant domain.Participant
	err := r.db.WithContext(ctx).
		First(&participant, "conversation_id = ? AND user_id = ?", conversationID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotParticipant
		}
		return nil, err
	}
	return &participant, nil
}

func (r *repository) ListParticipants(ctx context.Context, conversationID snowflake.ID) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *repository) CreateMessage(ctx context.Context, msg domain.Message) error {
	return r.db.WithContext(ctx).Create(&msg).Error
}

func (r *repository) GetMessage(ctx context.Context, conversationID, messageID snowflake.ID) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).
		First(&msg, "id = ? AND conversation_id = ?", messageID, conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *repository) ListMessages(ctx context.Context, conversationID snowflake.ID, beforeID snowflake.ID, limit int) ([]domain.Message, error) {
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID)
	if beforeID != 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []domain.Message
	err := q.Order("id DESC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *repository) ListUnreadMessageIDs(ctx context.Context, conversationID, userID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.id
		 FROM messages m
		 WHERE m.conversation_id = ?
		   AND m.sender_id <> ?
		   AND m.deleted_at IS NULL
		   AND NOT EXISTS (
		       SELECT 1 FROM message_reads mr
		       WHERE mr.message_id = m.id AND mr.user_id = ?
		   )
		 ORDER BY m.id ASC`,
		conversationID, userID, userID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CountUnread(ctx context.Context, conversationID, userID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*)
		 FROM messages m
		 WHERE m.conversation_id = ?
		   AND m.sender_id <> ?
		   AND m.deleted_at IS NULL
		   AND NOT EXISTS (
		       SELECT 1 FROM message_reads mr
		       WHERE mr.message_id = m.id AND mr.user_id = ?
		   )`,
		conversationID, userID, userID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) UpdateMessage(ctx context.Context, messageID snowflake.ID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", messageID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *repository) CreateReads(ctx context.Context, reads []domain.MessageRead) error {
	if len(reads) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reads).Error
}
