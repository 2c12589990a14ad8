package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/cache"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"go.uber.org/zap"
)

type fakeStudioRepo struct {
	studiodomain.Repository

	membership     *studiodomain.StudioMembership
	membershipErr  error
	getMemberCalls int
}

func (f *fakeStudioRepo) GetMembership(ctx context.Context, studioID, userID snowflake.ID) (*studiodomain.StudioMembership, error) {
	f.getMemberCalls++
	_ = ctx
	_ = studioID
	_ = userID
	if f.membershipErr != nil {
		return nil, f.membershipErr
	}
	return f.membership, nil
}

func newStudioTestServer(repo *fakeStudioRepo, session *authdomain.Session) *Server {
	return &Server{
		log:             zap.NewNop(),
		authsvc:         &fakeAuthService{session: session},
		studioRepo:      repo,
		membershipCache: cache.NewMembershipCache(),
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := newTestServer(&fakeAuthService{})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/auth/me", srv.AuthRequired(), srv.Me)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAuthRequiredAcceptsBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := newTestServer(&fakeAuthService{session: &authdomain.Session{UserID: snowflake.ID(7)}})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/auth/me", srv.AuthRequired(), srv.Me)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRequireStudioRoleAllowsListedRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &fakeStudioRepo{
		membership: &studiodomain.StudioMembership{
			StudioID: snowflake.ID(100),
			UserID:   snowflake.ID(7),
			Role:     studiodomain.RoleAdmin,
			Status:   studiodomain.MembershipActive,
		},
	}
	srv := newStudioTestServer(repo, &authdomain.Session{UserID: snowflake.ID(7)})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/studios/:id/ping",
		srv.AuthRequired(),
		srv.StudioContext(),
		srv.RequireStudioRole(studiodomain.RoleOwner, studiodomain.RoleAdmin),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)

	req := httptest.NewRequest(http.MethodGet, "/api/studios/100/ping", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRequireStudioRoleRejectsOtherRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &fakeStudioRepo{
		membership: &studiodomain.StudioMembership{
			StudioID: snowflake.ID(100),
			UserID:   snowflake.ID(7),
			Role:     studiodomain.RoleMember,
			Status:   studiodomain.MembershipActive,
		},
	}
	srv := newStudioTestServer(repo, &authdomain.Session{UserID: snowflake.ID(7)})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/studios/:id/ping",
		srv.AuthRequired(),
		srv.StudioContext(),
		srv.RequireStudioRole(studiodomain.RoleOwner, studiodomain.RoleAdmin),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)

	req := httptest.NewRequest(http.MethodGet, "/api/studios/100/ping", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRequireStudioRoleRejectsInactiveMembership(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &fakeStudioRepo{
		membership: &studiodomain.StudioMembership{
			StudioID: snowflake.ID(100),
			UserID:   snowflake.ID(7),
			Role:     studiodomain.RoleOwner,
			Status:   studiodomain.MembershipInactive,
		},
	}
	srv := newStudioTestServer(repo, &authdomain.Session{UserID: snowflake.ID(7)})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/studios/:id/ping",
		srv.AuthRequired(),
		srv.StudioContext(),
		srv.RequireStudioRole(studiodomain.RoleOwner),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)

	req := httptest.NewRequest(http.MethodGet, "/api/studios/100/ping", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestStudioContextCachesMembership(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &fakeStudioRepo{
		membership: &studiodomain.StudioMembership{
			StudioID: snowflake.ID(100),
			UserID:   snowflake.ID(7),
			Role:     studiodomain.RoleOwner,
			Status:   studiodomain.MembershipActive,
		},
	}
	srv := newStudioTestServer(repo, &authdomain.Session{UserID: snowflake.ID(7)})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/studios/:id/ping",
		srv.AuthRequired(),
		srv.StudioContext(),
		srv.RequireStudioMember(),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/studios/100/ping", nil)
		req.Header.Set("Authorization", "Bearer session-token")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, resp.Code)
		}
	}

	if repo.getMemberCalls != 1 {
		t.Fatalf("expected 1 membership lookup, got %d", repo.getMemberCalls)
	}
}
