package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/kararman/internal/middleware"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(120, 10))
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin:  "http://localhost:3000",
		RateLimiter:        rl,
		DecisionService:    &mockDecisionService{},
		PageSize:           20,
		CreditService:      &mockCreditService{},
		PetitionService:    &mockPetitionService{},
		AttachmentMaxBytes: 10485760,
		AssistantService:   &mockAssistantService{},
	})
}

// TestRouter_AnonymousRoutes は匿名アクセス可のルートをテストする。
func TestRouter_AnonymousRoutes(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{"/healthz", "/api/decisions", "/api/decisions/d-1", "/api/categories"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, rec.Code)
		}
	}
}

// TestRouter_ProtectedRoutesRequireAuth は認証必須ルートが
// 匿名で401になることをテストする。
func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/decisions/d-1/unlock"},
		{http.MethodGet, "/api/credits/balance"},
		{http.MethodPost, "/api/petitions"},
		{http.MethodGet, "/api/petitions"},
		{http.MethodPost, "/api/assistant/chat"},
		{http.MethodGet, "/api/assistant/history"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", c.method, c.path, rec.Code)
		}
	}
}

// TestRouter_IdentityHeaderFlowsToHandlers は認証ヘッダー付きの
// リクエストが保護ルートを通過することをテストする。
func TestRouter_IdentityHeaderFlowsToHandlers(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/credits/balance", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

// TestRouter_AppliesCommonHeaders はミドルウェアチェーンのヘッダーが
// 全ルートに効くことをテストする。
func TestRouter_AppliesCommonHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("CORS header should be set")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be set")
	}
}

// TestRouter_UnlockRateLimit は購入専用レート制限が独立に
// 効くことをテストする。
func TestRouter_UnlockRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(120, 1))
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin:  "http://localhost:3000",
		RateLimiter:        rl,
		DecisionService:    &mockDecisionService{},
		PageSize:           20,
		CreditService:      &mockCreditService{},
		PetitionService:    &mockPetitionService{},
		AttachmentMaxBytes: 10485760,
		AssistantService:   &mockAssistantService{},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first unlock: status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second unlock: status = %d, want 429", rec.Code)
	}

	// API全般のルートはまだ利用できる
	req = httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("general after unlock limit: status = %d, want 200", rec.Code)
	}
}
