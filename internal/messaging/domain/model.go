package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Conversation struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudioID  *snowflake.ID `gorm:"index" json:"studio_id,omitempty"`
	Topic     string        `json:"topic"`
	Kind      string        `gorm:"not null;default:direct" json:"kind"`
	CreatedBy *snowflake.ID `json:"created_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

type Participant struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ConversationID snowflake.ID `gorm:"uniqueIndex:uq_conversation_participants;not null" json:"conversation_id"`
	UserID         snowflake.ID `gorm:"uniqueIndex:uq_conversation_participants;not null" json:"user_id"`
	JoinedAt       time.Time    `json:"joined_at"`
}

func (Participant) TableName() string { return "conversation_participants" }

type Message struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	ConversationID snowflake.ID   `gorm:"index;not null" json:"conversation_id"`
	SenderID       snowflake.ID   `gorm:"not null" json:"sender_id"`
	Body           string         `json:"body"`
	Attachments    datatypes.JSON `gorm:"type:jsonb" json:"attachments"`
	CreatedAt      time.Time      `json:"created_at"`
	EditedAt       *time.Time     `json:"edited_at,omitempty"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}

func (Message) TableName() string { return "messages" }

type MessageRead struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	MessageID snowflake.ID `gorm:"uniqueIndex:uq_message_reads;not null" json:"message_id"`
	UserID    snowflake.ID `gorm:"uniqueIndex:uq_message_reads;not null" json:"user_id"`
	ReadAt    time.Time    `json:"read_at"`
}

func (MessageRead) TableName() string { return "message_reads" }
