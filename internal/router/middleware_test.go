package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/constants"
	handlershared "github.com/printdesk-next/internal/http/handlers/shared"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type stubProfileRepo struct {
	profiles map[string]*models.Profile
	calls    int
}

func (r *stubProfileRepo) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	r.calls++
	return r.profiles[userID], nil
}

func (r *stubProfileRepo) GetClient(context.Context, uint, uint) (*models.Client, error) {
	return nil, nil
}

func runAuth(t *testing.T, cfg config.JWTConfig, repo repository.ProfileRepository, header string) (int, *service.Actor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen *service.Actor
	r := gin.New()
	r.Use(JWTAuthMiddleware(cfg, repo))
	r.GET("/ping", func(c *gin.Context) {
		if value, ok := c.Get(handlershared.ActorContextKey); ok {
			actor := value.(service.Actor)
			seen = &actor
		}
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode, seen
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	code, _ := runAuth(t, config.JWTConfig{}, &stubProfileRepo{}, "Bearer x")
	if code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestJWTAuthMiddlewareResolvesActor(t *testing.T) {
	cfg := config.JWTConfig{SecretKey: "secret", Issuer: "printdesk"}
	repo := &stubProfileRepo{profiles: map[string]*models.Profile{
		"u-1": {UserID: "u-1", CompanyID: 7, Role: constants.RoleDesigner, IsActive: true},
		"u-2": {UserID: "u-2", CompanyID: 7, Role: constants.RoleSales, IsActive: false},
		"u-3": {UserID: "u-3", CompanyID: 7, Role: "janitor", IsActive: true},
	}}

	token, err := IssueAccessToken(cfg.SecretKey, cfg.Issuer, "u-1", time.Hour)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	code, actor := runAuth(t, cfg, repo, "Bearer "+token)
	if code != 0 || actor == nil {
		t.Fatalf("expected authenticated request, got code %d", code)
	}
	if actor.UserID != "u-1" || actor.CompanyID != 7 || actor.Role != constants.RoleDesigner {
		t.Fatalf("unexpected actor: %+v", actor)
	}

	for _, userID := range []string{"u-2", "u-3", "missing"} {
		token, _ := IssueAccessToken(cfg.SecretKey, cfg.Issuer, userID, time.Hour)
		if code, _ := runAuth(t, cfg, repo, "Bearer "+token); code != 401 {
			t.Fatalf("%s: status_code want 401 got %d", userID, code)
		}
	}
}

func TestJWTAuthMiddlewareRejectsBadTokens(t *testing.T) {
	cfg := config.JWTConfig{SecretKey: "secret", Issuer: "printdesk"}
	repo := &stubProfileRepo{profiles: map[string]*models.Profile{
		"u-1": {UserID: "u-1", CompanyID: 7, Role: constants.RoleAdmin, IsActive: true},
	}}
	wrongSecret, _ := IssueAccessToken("other", cfg.Issuer, "u-1", time.Hour)
	wrongIssuer, _ := IssueAccessToken(cfg.SecretKey, "elsewhere", "u-1", time.Hour)
	expired, _ := IssueAccessToken(cfg.SecretKey, cfg.Issuer, "u-1", -time.Minute)
	cases := map[string]string{
		"missing":      "",
		"scheme":       "Token abc",
		"wrong_secret": "Bearer " + wrongSecret,
		"wrong_issuer": "Bearer " + wrongIssuer,
		"expired":      "Bearer " + expired,
	}
	for name, header := range cases {
		if code, _ := runAuth(t, cfg, repo, header); code != 401 {
			t.Fatalf("%s: status_code want 401 got %d", name, code)
		}
	}
	if repo.calls != 0 {
		t.Fatalf("profile lookups should not happen for rejected tokens, got %d", repo.calls)
	}
}

func TestKeyByActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"
	if got := KeyByActor(c); got != "10.0.0.1" {
		t.Fatalf("anonymous key want ip got %s", got)
	}
	c.Set(handlershared.ActorContextKey, service.Actor{UserID: "u-9", CompanyID: 1, Role: constants.RoleSales})
	if got := KeyByActor(c); got != "u-9" {
		t.Fatalf("actor key want u-9 got %s", got)
	}
}
