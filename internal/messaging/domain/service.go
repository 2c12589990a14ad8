package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	KindDirect = "direct"
	KindGroup  = "group"
	KindStudio = "studio"
)

func ValidKind(kind string) bool {
	switch kind {
	case KindDirect, KindGroup, KindStudio:
		return true
	}
	return false
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, conversationID snowflake.ID) (*Conversation, error)
	TouchConversation(ctx context.Context, conversationID snowflake.ID, at time.Time) error
	ListConversationsByUser(ctx context.Context, userID snowflake.ID) ([]Conversation, error)

	AddParticipant(ctx context.Context, participant Participant) error
	GetParticipant(ctx context.Context, conversationID, userID snowflake.ID) (*Participant, error)
	ListParticipants(ctx context.Context, conversationID snowflake.ID) ([]Participant, error)

	CreateMessage(ctx context.Context, msg Message) error
	GetMessage(ctx context.Context, conversationID, messageID snowflake.ID) (*Message, error)
	ListMessages(ctx context.Context, conversationID snowflake.ID, beforeID snowflake.ID, limit int) ([]Message, error)
	ListUnreadMessageIDs(ctx context.Context, conversationID, userID snowflake.ID) ([]snowflake.ID, error)
	CountUnread(ctx context.Context, conversationID, userID snowflake.ID) (int64, error)
	UpdateMessage(ctx context.Context, messageID snowflake.ID, fields map[string]any) error
	CreateReads(ctx context.Context, reads []MessageRead) error
}

type Service interface {
	CreateConversation(ctx context.Context, creatorID snowflake.ID, req CreateConversationRequest) (*ConversationResponse, error)
	ListConversations(ctx context.Context, userID snowflake.ID) ([]ConversationResponse, error)
	SendMessage(ctx context.Context, senderID snowflake.ID, conversationID string, req SendMessageRequest) (*MessageResponse, error)
	ListMessages(ctx context.Context, userID snowflake.ID, conversationID, beforeID string, limit int) ([]MessageResponse, error)
	EditMessage(ctx context.Context, userID snowflake.ID, conversationID, messageID string, body string) (*MessageResponse, error)
	DeleteMessage(ctx context.Context, userID snowflake.ID, conversationID, messageID string) error
	MarkRead(ctx context.Context, userID snowflake.ID, conversationID string) (int, error)
}

type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type CreateConversationRequest struct {
	StudioID       string   `json:"studio_id,omitempty"`
	Kind           string   `json:"kind"`
	Topic          string   `json:"topic,omitempty"`
	ParticipantIDs []string `json:"participant_ids"`
}

type SendMessageRequest struct {
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type ConversationResponse struct {
	ID           string    `json:"id"`
	StudioID     string    `json:"studio_id,omitempty"`
	Topic        string    `json:"topic,omitempty"`
	Kind         string    `json:"kind"`
	Participants []string  `json:"participants"`
	UnreadCount  int64     `json:"unread_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type MessageResponse struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	Body           string       `json:"body"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Deleted        bool         `json:"deleted,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	EditedAt       *time.Time   `json:"edited_at,omitempty"`
}

var (
	ErrInvalidConversation  = errors.New("invalid_conversation")
	ErrInvalidKind          = errors.New("invalid_kind")
	ErrInvalidParticipants  = errors.New("invalid_participants")
	ErrInvalidStudio        = errors.New("invalid_studio")
	ErrInvalidMessage       = errors.New("invalid_message")
	ErrEmptyMessage         = errors.New("empty_message")
	ErrNotParticipant       = errors.New("not_a_participant")
	ErrNotSender            = errors.New("not_message_sender")
	ErrMessageDeleted       = errors.New("message_deleted")
	ErrConversationNotFound = errors.New("conversation_not_found")
	ErrMessageNotFound      = errors.New("message_not_found")
)
