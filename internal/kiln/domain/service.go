package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	KilnStatusOperational = "operational"
	KilnStatusMaintenance = "maintenance"
	KilnStatusRetired     = "retired"
)

const (
	FiringScheduled  = "scheduled"
	FiringInProgress = "in_progress"
	FiringCompleted  = "completed"
	FiringCancelled  = "cancelled"
)

func ValidKilnType(kilnType string) bool {
	switch kilnType {
	case "electric", "gas", "wood", "raku", "soda":
		return true
	}
	return false
}

func ValidKilnStatus(status string) bool {
	switch status {
	case KilnStatusOperational, KilnStatusMaintenance, KilnStatusRetired:
		return true
	}
	return false
}

func ValidFiringType(firingType string) bool {
	switch firingType {
	case "bisque", "glaze", "raku", "luster", "test":
		return true
	}
	return false
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateKiln(ctx context.Context, kiln Kiln) error
	GetKiln(ctx context.Context, studioID, kilnID snowflake.ID) (*Kiln, error)
	ListKilns(ctx context.Context, studioID snowflake.ID) ([]Kiln, error)
	UpdateKiln(ctx context.Context, kilnID snowflake.ID, fields map[string]any) error
	DeleteKiln(ctx context.Context, studioID, kilnID snowflake.ID) error

	CreateFiring(ctx context.Context, firing Firing) error
	GetFiring(ctx context.Context, kilnID, firingID snowflake.ID) (*Firing, error)
	ListFirings(ctx context.Context, kilnID snowflake.ID, status string) ([]Firing, error)
	CountOverlappingFirings(ctx context.Context, kilnID snowflake.ID, startsAt, endsAt time.Time) (int64, error)
	UpdateFiring(ctx context.Context, firingID snowflake.ID, fields map[string]any) error
}

type Service interface {
	CreateKiln(ctx context.Context, studioID string, req KilnRequest) (*Kiln, error)
	GetKiln(ctx context.Context, studioID, kilnID string) (*Kiln, error)
	ListKilns(ctx context.Context, studioID string) ([]Kiln, error)
	UpdateKiln(ctx context.Context, studioID, kilnID string, req KilnRequest) (*Kiln, error)
	DeleteKiln(ctx context.Context, studioID, kilnID string) error

	ScheduleFiring(ctx context.Context, userID snowflake.ID, studioID, kilnID string, req FiringRequest) (*Firing, error)
	GetFiring(ctx context.Context, studioID, kilnID, firingID string) (*Firing, error)
	ListFirings(ctx context.Context, studioID, kilnID, status string) ([]Firing, error)
	UpdateFiringStatus(ctx context.Context, studioID, kilnID, firingID, status string) error
}

type KilnRequest struct {
	Name           string `json:"name"`
	KilnType       string `json:"kiln_type"`
	MaxTempC       int    `json:"max_temp_c"`
	CapacityLiters int    `json:"capacity_liters"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

type FiringRequest struct {
	Cone       string     `json:"cone"`
	FiringType string     `json:"firing_type"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
	Notes      string     `json:"notes"`
}

var (
	ErrInvalidStudio      = errors.New("invalid_studio")
	ErrInvalidKiln        = errors.New("invalid_kiln")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidKilnType    = errors.New("invalid_kiln_type")
	ErrInvalidKilnStatus  = errors.New("invalid_kiln_status")
	ErrInvalidFiring      = errors.New("invalid_firing")
	ErrInvalidFiringType  = errors.New("invalid_firing_type")
	ErrInvalidTimeRange   = errors.New("invalid_time_range")
	ErrKilnNotFound       = errors.New("kiln_not_found")
	ErrKilnNotOperational = errors.New("kiln_not_operational")
	ErrFiringNotFound     = errors.New("firing_not_found")
	ErrFiringOverlap      = errors.New("firing_overlap")
	ErrInvalidTransition  = errors.New("invalid_status_transition")
)
