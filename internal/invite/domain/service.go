package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRevoked  = "revoked"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

type Service interface {
	CreateInvite(ctx context.Context, inviterID snowflake.ID, studioID string, req CreateInviteRequest) (*InviteResponse, error)
	ListInvites(ctx context.Context, studioID, status string) ([]InviteResponse, error)
	GetInviteByToken(ctx context.Context, token string) (*InviteResponse, error)
	RevokeInvite(ctx context.Context, studioID, inviteID string) error
	AcceptInvite(ctx context.Context, userID snowflake.ID, token string) (*AcceptInviteResult, error)
	RejectInvite(ctx context.Context, userID snowflake.ID, token string) error

	Apply(ctx context.Context, userID snowflake.ID, studioID string, req ApplyRequest) (*ApplicationResponse, error)
	ListApplications(ctx context.Context, studioID, status string) ([]ApplicationResponse, error)
	DecideApplication(ctx context.Context, deciderID snowflake.ID, studioID, applicationID string, req DecideApplicationRequest) error
}

type CreateInviteRequest struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	LocationID     string `json:"locationId"`
	MembershipType string `json:"membershipType"`
	Note           string `json:"note"`
}

type ApplyRequest struct {
	LocationID     string `json:"locationId"`
	MembershipType string `json:"membershipType"`
	Message        string `json:"message"`
}

type DecideApplicationRequest struct {
	Approve bool `json:"approve"`
}

type InviteResponse struct {
	ID             string     `json:"id"`
	StudioID       string     `json:"studio_id"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	LocationID     string     `json:"location_id,omitempty"`
	MembershipType string     `json:"membership_type,omitempty"`
	Status         string     `json:"status"`
	Note           string     `json:"note"`
	Token          string     `json:"token,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type AcceptInviteResult struct {
	StudioID     string `json:"studio_id"`
	MembershipID string `json:"membership_id"`
	Role         string `json:"role"`
}

type ApplicationResponse struct {
	ID             string     `json:"id"`
	StudioID       string     `json:"studio_id"`
	UserID         string     `json:"user_id"`
	LocationID     string     `json:"location_id,omitempty"`
	MembershipType string     `json:"membership_type,omitempty"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

var (
	ErrInvalidStudio            = errors.New("invalid_studio")
	ErrInvalidInvite            = errors.New("invalid_invite")
	ErrInvalidEmail             = errors.New("invalid_email")
	ErrInvalidRole              = errors.New("invalid_role")
	ErrInvalidUser              = errors.New("invalid_user")
	ErrInvalidLocation          = errors.New("invalid_location")
	ErrInviteNotFound           = errors.New("invite_not_found")
	ErrInviteNotPending         = errors.New("invite_not_pending")
	ErrInviteExpired            = errors.New("invite_expired")
	ErrEmailMismatch            = errors.New("email_mismatch")
	ErrAlreadyMember            = errors.New("already_member")
	ErrPendingInviteExists      = errors.New("pending_invite_exists")
	ErrInviteLimit              = errors.New("invite_limit_reached")
	ErrMemberLimit              = errors.New("member_limit_reached")
	ErrApplicationNotFound      = errors.New("application_not_found")
	ErrApplicationNotPending    = errors.New("application_not_pending")
	ErrPendingApplicationExists = errors.New("pending_application_exists")
)
