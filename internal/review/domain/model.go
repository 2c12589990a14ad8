package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Review struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudioID  snowflake.ID  `gorm:"index;not null" json:"studio_id"`
	ClassID   *snowflake.ID `json:"class_id,omitempty"`
	AuthorID  snowflake.ID  `gorm:"not null" json:"author_id"`
	Rating    int           `gorm:"not null" json:"rating"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Review) TableName() string { return "reviews" }

// ReviewListItem is the join row returned by list queries.
type ReviewListItem struct {
	ID          snowflake.ID  `json:"id"`
	ClassID     *snowflake.ID `json:"class_id,omitempty"`
	AuthorID    snowflake.ID  `json:"author_id"`
	DisplayName string        `json:"display_name"`
	Rating      int           `json:"rating"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	CreatedAt   time.Time     `json:"created_at"`
}
