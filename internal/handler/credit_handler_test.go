package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kararman/internal/credit"
	"github.com/hitoshi/kararman/internal/middleware"
	"github.com/hitoshi/kararman/internal/model"
)

// mockCreditService はテスト用のCreditServiceInterface実装。
type mockCreditService struct {
	unlockFn  func(ctx context.Context, userID, decisionID string) (*credit.UnlockResult, error)
	balanceFn func(ctx context.Context, userID string) (int, error)
	grantFn   func(ctx context.Context, userID string, credits int) error
}

func (m *mockCreditService) Unlock(ctx context.Context, userID, decisionID string) (*credit.UnlockResult, error) {
	if m.unlockFn != nil {
		return m.unlockFn(ctx, userID, decisionID)
	}
	return &credit.UnlockResult{
		Purchase: &model.Purchase{DecisionID: decisionID, CreatedAt: time.Now()},
		Balance:  1,
	}, nil
}

func (m *mockCreditService) Balance(ctx context.Context, userID string) (int, error) {
	if m.balanceFn != nil {
		return m.balanceFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockCreditService) Grant(ctx context.Context, userID string, credits int) error {
	if m.grantFn != nil {
		return m.grantFn(ctx, userID, credits)
	}
	return nil
}

func newCreditRouter(svc CreditServiceInterface) http.Handler {
	h := NewCreditHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/decisions/{id}/unlock", h.Unlock)
	r.Get("/api/credits/balance", h.Balance)
	r.Post("/api/credits/grant", h.Grant)
	return r
}

func authed(req *http.Request, userID, role string) *http.Request {
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), userID, role))
}

// TestUnlock_Success は閲覧権購入の成功レスポンスをテストする。
func TestUnlock_Success(t *testing.T) {
	svc := &mockCreditService{}
	svc.unlockFn = func(ctx context.Context, userID, decisionID string) (*credit.UnlockResult, error) {
		if userID != "user-1" || decisionID != "d-1" {
			t.Errorf("args = (%q, %q)", userID, decisionID)
		}
		return &credit.UnlockResult{
			Purchase: &model.Purchase{DecisionID: decisionID, CreatedAt: time.Now()},
			Balance:  4,
		}, nil
	}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil), "user-1", "")
	rec := httptest.NewRecorder()
	newCreditRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body unlockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.DecisionID != "d-1" || body.Balance != 4 || body.AlreadyUnlocked {
		t.Errorf("body = %+v", body)
	}
}

// TestUnlock_AlreadyUnlocked は解錠済み決定への再解錠が200で
// already_unlockedと既存の購入日時を返すことをテストする。
func TestUnlock_AlreadyUnlocked(t *testing.T) {
	unlockedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := &mockCreditService{}
	svc.unlockFn = func(ctx context.Context, userID, decisionID string) (*credit.UnlockResult, error) {
		return &credit.UnlockResult{
			Purchase:        &model.Purchase{ID: "p-1", DecisionID: decisionID, CreatedAt: unlockedAt},
			Balance:         5,
			AlreadyUnlocked: true,
		}, nil
	}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil), "user-1", "")
	rec := httptest.NewRecorder()
	newCreditRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body unlockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.DecisionID != "d-1" || body.Balance != 5 || !body.AlreadyUnlocked {
		t.Errorf("body = %+v", body)
	}
	if !body.UnlockedAt.Equal(unlockedAt) {
		t.Errorf("UnlockedAt = %v, want %v", body.UnlockedAt, unlockedAt)
	}
}

// TestUnlock_PurchaseRowMissing は購入記録が同梱されない成功応答でも
// パニックせず200を返すことをテストする。
func TestUnlock_PurchaseRowMissing(t *testing.T) {
	svc := &mockCreditService{}
	svc.unlockFn = func(ctx context.Context, userID, decisionID string) (*credit.UnlockResult, error) {
		return &credit.UnlockResult{Balance: 5, AlreadyUnlocked: true}, nil
	}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil), "user-1", "")
	rec := httptest.NewRecorder()
	newCreditRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body unlockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.DecisionID != "d-1" || !body.AlreadyUnlocked {
		t.Errorf("body = %+v", body)
	}
	if !body.UnlockedAt.IsZero() {
		t.Errorf("UnlockedAt = %v, want zero", body.UnlockedAt)
	}
}

// TestUnlock_InsufficientCredits は残高不足が402になることをテストする。
func TestUnlock_InsufficientCredits(t *testing.T) {
	svc := &mockCreditService{}
	svc.unlockFn = func(ctx context.Context, userID, decisionID string) (*credit.UnlockResult, error) {
		return nil, model.NewInsufficientCreditsError()
	}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil), "user-1", "")
	rec := httptest.NewRecorder()
	newCreditRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}

	var body middleware.ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeInsufficientCredits {
		t.Errorf("code = %q", body.Code)
	}
}

// TestUnlock_RequiresAuth は匿名の購入が401になることをテストする。
func TestUnlock_RequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/decisions/d-1/unlock", nil)
	rec := httptest.NewRecorder()
	newCreditRouter(&mockCreditService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestBalance は残高取得をテストする。
func TestBalance(t *testing.T) {
	svc := &mockCreditService{}
	svc.balanceFn = func(ctx context.Context, userID string) (int, error) {
		return 12, nil
	}

	req := authed(httptest.NewRequest(http.MethodGet, "/api/credits/balance", nil), "user-1", "")
	rec := httptest.NewRecorder()
	newCreditRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Balance != 12 {
		t.Errorf("balance = %d, want 12", body.Balance)
	}
}

// TestGrant_AdminOnly は管理者以外のクレジット付与が403になることをテストする。
func TestGrant_AdminOnly(t *testing.T) {
	svc := &mockCreditService{}
	svc.grantFn = func(ctx context.Context, userID string, credits int) error {
		t.Error("grant should not be called")
		return nil
	}

	body := strings.NewReader(`{"user_id": "user-2", "credits": 5}`)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/credits/grant", body), "user-1", "")
	rec := httptest.NewRecorder()
	newCreditRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestGrant_Success は管理者によるクレジット付与をテストする。
func TestGrant_Success(t *testing.T) {
	var grantedUser string
	var grantedCredits int
	svc := &mockCreditService{}
	svc.grantFn = func(ctx context.Context, userID string, credits int) error {
		grantedUser, grantedCredits = userID, credits
		return nil
	}
	svc.balanceFn = func(ctx context.Context, userID string) (int, error) {
		return 5, nil
	}

	body := strings.NewReader(`{"user_id": "user-2", "credits": 5}`)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/credits/grant", body), "admin-1", "admin")
	rec := httptest.NewRecorder()
	newCreditRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if grantedUser != "user-2" || grantedCredits != 5 {
		t.Errorf("grant args = (%q, %d)", grantedUser, grantedCredits)
	}
}

// TestGrant_ValidatesBody は不正な付与リクエストが400になることをテストする。
func TestGrant_ValidatesBody(t *testing.T) {
	cases := []string{
		`{"user_id": "", "credits": 5}`,
		`{"user_id": "user-2", "credits": 0}`,
		`{"user_id": "user-2", "credits": -3}`,
		`not json`,
	}
	for _, c := range cases {
		req := authed(httptest.NewRequest(http.MethodPost, "/api/credits/grant", strings.NewReader(c)), "admin-1", "admin")
		rec := httptest.NewRecorder()
		newCreditRouter(&mockCreditService{}).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", c, rec.Code)
		}
	}
}
