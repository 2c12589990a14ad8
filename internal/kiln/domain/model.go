package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Kiln struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	StudioID       snowflake.ID `gorm:"index;not null" json:"studio_id"`
	Name           string       `gorm:"not null" json:"name"`
	KilnType       string       `gorm:"column:kiln_type;default:electric" json:"kiln_type"`
	MaxTempC       int          `gorm:"column:max_temp_c" json:"max_temp_c"`
	CapacityLiters int          `json:"capacity_liters"`
	Status         string       `gorm:"not null;default:operational" json:"status"`
	Notes          string       `json:"notes"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Kiln) TableName() string { return "kilns" }

type Firing struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	KilnID      snowflake.ID  `gorm:"index;not null" json:"kiln_id"`
	ScheduledBy *snowflake.ID `json:"scheduled_by,omitempty"`
	Cone        string        `json:"cone"`
	FiringType  string        `gorm:"column:firing_type;default:bisque" json:"firing_type"`
	StartsAt    time.Time     `gorm:"not null" json:"starts_at"`
	EndsAt      *time.Time    `json:"ends_at,omitempty"`
	Status      string        `gorm:"not null;default:scheduled" json:"status"`
	Notes       string        `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Firing) TableName() string { return "kiln_firings" }
