package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitedomain "github.com/throwclay/throwclay/internal/invite/domain"
	"go.uber.org/zap"
)

type fakeInviteService struct {
	invitedomain.Service

	created   *invitedomain.CreateInviteRequest
	accept    *invitedomain.AcceptInviteResult
	acceptErr error
}

func (f *fakeInviteService) CreateInvite(ctx context.Context, inviterID snowflake.ID, studioID string, req invitedomain.CreateInviteRequest) (*invitedomain.InviteResponse, error) {
	_ = ctx
	_ = inviterID
	f.created = &req
	return &invitedomain.InviteResponse{
		ID:             snowflake.ID(400).String(),
		StudioID:       studioID,
		Email:          req.Email,
		Role:           req.Role,
		LocationID:     req.LocationID,
		MembershipType: req.MembershipType,
		Status:         invitedomain.StatusPending,
		Token:          "01HTESTINVITETOKEN",
	}, nil
}

func (f *fakeInviteService) AcceptInvite(ctx context.Context, userID snowflake.ID, token string) (*invitedomain.AcceptInviteResult, error) {
	_ = ctx
	_ = userID
	_ = token
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return f.accept, nil
}

func newInviteTestRouter(svc *fakeInviteService) *gin.Engine {
	srv := &Server{
		log:       zap.NewNop(),
		inviteSvc: svc,
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.Use(func(c *gin.Context) {
		c.Set(contextUserIDKey, snowflake.ID(200).String())
		c.Next()
	})
	router.POST("/api/studios/:id/invites", srv.CreateInvite)
	router.POST("/api/invites/accept", srv.AcceptInvite)
	return router
}

func TestCreateInviteHandlerReturnsToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeInviteService{}
	router := newInviteTestRouter(svc)

	body := `{"email":"potter@example.com","role":"member","locationId":"9001","membershipType":"wheel"}`
	req := httptest.NewRequest(http.MethodPost, "/api/studios/123/invites", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected CreateInvite call")
	}
	if svc.created.LocationID != "9001" {
		t.Fatalf("expected location 9001 on request, got %q", svc.created.LocationID)
	}
	if svc.created.MembershipType != "wheel" {
		t.Fatalf("expected wheel membership type on request, got %q", svc.created.MembershipType)
	}

	var invite invitedomain.InviteResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &invite); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if invite.Token == "" {
		t.Fatal("expected token in creation response")
	}
	if invite.Status != invitedomain.StatusPending {
		t.Fatalf("expected pending invite, got %q", invite.Status)
	}
}

func TestAcceptInviteHandlerReturnsMembership(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeInviteService{
		accept: &invitedomain.AcceptInviteResult{
			StudioID:     "123",
			MembershipID: "456",
			Role:         "member",
		},
	}
	router := newInviteTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/invites/accept", bytes.NewBufferString(`{"token":"01HTESTINVITETOKEN"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		OK           bool   `json:"ok"`
		StudioID     string `json:"studio_id"`
		MembershipID string `json:"membership_id"`
		Role         string `json:"role"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.OK {
		t.Fatal("expected ok response")
	}
	if result.StudioID != "123" || result.Role != "member" {
		t.Fatalf("unexpected accept payload: %+v", result)
	}
}

func TestAcceptInviteHandlerMapsEmailMismatchTo403(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeInviteService{acceptErr: invitedomain.ErrEmailMismatch}
	router := newInviteTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/invites/accept", bytes.NewBufferString(`{"token":"01HTESTINVITETOKEN"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Error.Type != "forbidden" {
		t.Fatalf("expected forbidden error type, got %q", payload.Error.Type)
	}
}
