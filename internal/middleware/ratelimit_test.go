package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    3,
		UnlockRate:      rate.Limit(1.0 / 60.0),
		UnlockBurst:     1,
		CleanupInterval: time.Hour,
	}
}

// TestNewRateLimiterConfig は分間リクエスト数からの設定構築をテストする。
func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 10)

	if cfg.GeneralRate != rate.Limit(2.0) {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.UnlockBurst != 10 {
		t.Errorf("UnlockBurst = %d, want 10", cfg.UnlockBurst)
	}
}

// TestGeneralMiddleware_AllowsWithinBurst はバースト内のリクエストが
// 通過することをテストする。
func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), "user-1", ""))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

// TestGeneralMiddleware_RejectsOverBurst はバースト超過が429になり
// Retry-Afterが設定されることをテストする。
func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), "user-1", ""))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
	if ct := last.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// TestGeneralMiddleware_AnonymousKeyedByIP は匿名リクエストが
// 接続元IPごとに制限されることをテストする。
func TestGeneralMiddleware_AnonymousKeyedByIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 同一IPからバーストを使い切る
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("same IP: status = %d, want 429", rec.Code)
	}

	// 別IPは独立に制限される
	req = httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	req.RemoteAddr = "10.0.0.2:12345"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", rec.Code)
	}
}

// TestUnlockMiddleware_IndependentOfGeneral は購入レート制限が
// API全般の制限と独立に動作することをテストする。
func TestUnlockMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	unlockHandler := rl.UnlockMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 購入のバースト(1)を使い切る
	req := httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), "user-1", ""))
	rec := httptest.NewRecorder()
	unlockHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first unlock: status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), "user-1", ""))
	rec = httptest.NewRecorder()
	unlockHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second unlock: status = %d, want 429", rec.Code)
	}

	// API全般の制限はまだ消費されていない
	generalHandler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req = httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), "user-1", ""))
	rec = httptest.NewRecorder()
	generalHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("general after unlock limit: status = %d, want 200", rec.Code)
	}
}

// TestUnlockMiddleware_RequiresUser は匿名の購入リクエストが
// 401になることをテストする。
func TestUnlockMiddleware_RequiresUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.UnlockMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestRateLimiter_SeparateUsers はユーザーごとに独立した
// リミッターが使われることをテストする。
func TestRateLimiter_SeparateUsers(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), "user-a", ""))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), "user-b", ""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("user-b: status = %d, want 200", rec.Code)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

// TestLimiterPool_Evict は期限切れエントリの削除をテストする。
func TestLimiterPool_Evict(t *testing.T) {
	pool := newLimiterPool(rate.Limit(1), 1)
	pool.get("user-1")
	pool.get("user-2")

	if got := pool.count(); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}

	// 最終アクセスを過去にずらして期限切れにする
	pool.mu.Lock()
	pool.limiters["user-1"].lastAccess = time.Now().Add(-time.Hour)
	pool.mu.Unlock()

	pool.evict(10 * time.Minute)

	if got := pool.count(); got != 1 {
		t.Errorf("count after evict = %d, want 1", got)
	}
}
