package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
	UpdateProfile(ctx context.Context, userID snowflake.ID, req UpdateProfileRequest) (*User, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, currentPassword, newPassword string) error
}

type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type UpdateProfileRequest struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

type LoginResult struct {
	User      *Profile
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
