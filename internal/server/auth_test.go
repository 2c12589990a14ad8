package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"go.uber.org/zap"
)

type fakeAuthService struct {
	registerCalls int
	loginCalls    int
	session       *authdomain.Session
	loginErr      error
}

func (f *fakeAuthService) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.User, error) {
	f.registerCalls++
	_ = ctx
	return &authdomain.User{
		ID:          snowflake.ID(200),
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	_ = ctx
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &authdomain.LoginResult{
		User: &authdomain.Profile{
			ID:    snowflake.ID(200).String(),
			Email: req.Email,
		},
		RawToken:  "session-token",
		ExpiresAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	_ = ctx
	_ = rawToken
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	_ = ctx
	_ = rawToken
	if f.session == nil {
		return nil, authdomain.ErrInvalidSession
	}
	return f.session, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	_ = ctx
	return &authdomain.User{ID: id, Email: "potter@example.com"}, nil
}

func (f *fakeAuthService) UpdateProfile(ctx context.Context, userID snowflake.ID, req authdomain.UpdateProfileRequest) (*authdomain.User, error) {
	_ = ctx
	user := &authdomain.User{ID: userID, Email: "potter@example.com"}
	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	return user, nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID snowflake.ID, currentPassword, newPassword string) error {
	_ = ctx
	_ = userID
	_ = currentPassword
	_ = newPassword
	return nil
}

func newTestServer(authsvc authdomain.Service) *Server {
	return &Server{
		log:     zap.NewNop(),
		authsvc: authsvc,
	}
}

func TestRegisterHandlerReturnsProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authsvc := &fakeAuthService{}
	srv := newTestServer(authsvc)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/auth/register", srv.Register)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"email":"potter@example.com","password":"wheel-thrown","display_name":"Potter"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if authsvc.registerCalls != 1 {
		t.Fatalf("expected 1 register call, got %d", authsvc.registerCalls)
	}

	var profile authdomain.Profile
	if err := json.Unmarshal(resp.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if profile.Email != "potter@example.com" {
		t.Fatalf("unexpected email %q", profile.Email)
	}
}

func TestLoginHandlerReturnsToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authsvc := &fakeAuthService{}
	srv := newTestServer(authsvc)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/auth/login", srv.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"potter@example.com","password":"wheel-thrown"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body LoginResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token != "session-token" {
		t.Fatalf("unexpected token %q", body.Token)
	}
	if body.User == nil || body.User.Email != "potter@example.com" {
		t.Fatalf("unexpected user in response: %+v", body.User)
	}
}

func TestLoginHandlerMapsInvalidCredentialsTo401(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authsvc := &fakeAuthService{loginErr: authdomain.ErrInvalidCredentials}
	srv := newTestServer(authsvc)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/auth/login", srv.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"potter@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", resp.Code, resp.Body.String())
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Error.Type != "unauthorized" {
		t.Fatalf("unexpected error type %q", body.Error.Type)
	}
}

func TestChangePasswordRejectsSamePassword(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authsvc := &fakeAuthService{session: &authdomain.Session{UserID: snowflake.ID(200)}}
	srv := newTestServer(authsvc)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/auth/change-password", srv.AuthRequired(), srv.ChangePassword)

	req := httptest.NewRequest(http.MethodPost, "/auth/change-password", bytes.NewBufferString(`{"current_password":"same","new_password":"same"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer session-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Error.Type != "validation_error" {
		t.Fatalf("unexpected error type %q", body.Error.Type)
	}
	if len(body.Error.Errors) != 1 || body.Error.Errors[0].Code != "must_differ" {
		t.Fatalf("unexpected validation errors: %+v", body.Error.Errors)
	}
}
