package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kararman/internal/credit"
	"github.com/hitoshi/kararman/internal/middleware"
	"github.com/hitoshi/kararman/internal/model"
)

// CreditServiceInterface はクレジットハンドラーが必要とするサービスインターフェース。
type CreditServiceInterface interface {
	// Unlock は決定の閲覧権を購入する。購入済みの場合は冪等に成功を返す。
	Unlock(ctx context.Context, userID, decisionID string) (*credit.UnlockResult, error)
	// Balance はユーザーのクレジット残高を返す。
	Balance(ctx context.Context, userID string) (int, error)
	// Grant はユーザーにクレジットを付与する。
	Grant(ctx context.Context, userID string, credits int) error
}

// CreditHandler はクレジット・閲覧権購入のHTTPハンドラー。
type CreditHandler struct {
	service CreditServiceInterface
}

// NewCreditHandler はCreditHandlerを生成する。
func NewCreditHandler(service CreditServiceInterface) *CreditHandler {
	return &CreditHandler{service: service}
}

// unlockResponse は閲覧権購入のレスポンス。
type unlockResponse struct {
	DecisionID      string    `json:"decision_id"`
	Balance         int       `json:"balance"`
	AlreadyUnlocked bool      `json:"already_unlocked"`
	UnlockedAt      time.Time `json:"unlocked_at"`
}

// balanceResponse はクレジット残高のレスポンス。
type balanceResponse struct {
	Balance int `json:"balance"`
}

// grantRequest はクレジット付与リクエストのボディ。
type grantRequest struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
}

// Unlock は決定の閲覧権を購入する。
// POST /api/decisions/:id/unlock
func (h *CreditHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisionID := chi.URLParam(r, "id")

	result, err := h.service.Unlock(r.Context(), userID, decisionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := unlockResponse{
		DecisionID:      decisionID,
		Balance:         result.Balance,
		AlreadyUnlocked: result.AlreadyUnlocked,
	}
	if result.Purchase != nil {
		resp.UnlockedAt = result.Purchase.CreatedAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// Balance はクレジット残高を取得する。
// GET /api/credits/balance
func (h *CreditHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// Grant は任意のユーザーにクレジットを付与する。管理者専用。
// 決済プラットフォームからの入金通知の受け口として使う。
// POST /api/credits/grant
func (h *CreditHandler) Grant(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	if middleware.RoleFromContext(r.Context()) != middleware.RoleAdmin {
		writeAPIErrorResponse(w, http.StatusForbidden, &model.APIError{
			Code:     "FORBIDDEN",
			Message:  "Bu işlem için yetkiniz yok.",
			Category: "auth",
			Action:   "Yönetici hesabıyla giriş yapın.",
		})
		return
	}

	var req grantRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Credits <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "user_id ve pozitif bir credits değeri gereklidir.",
			Category: "validation",
			Action:   "İstek alanlarını kontrol edin.",
		})
		return
	}

	if err := h.service.Grant(r.Context(), req.UserID, req.Credits); err != nil {
		handleServiceError(w, err)
		return
	}

	balance, err := h.service.Balance(r.Context(), req.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}
