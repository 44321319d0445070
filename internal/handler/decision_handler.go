// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kararman/internal/decision"
	"github.com/hitoshi/kararman/internal/filter"
	"github.com/hitoshi/kararman/internal/middleware"
	"github.com/hitoshi/kararman/internal/model"
)

// DecisionServiceInterface は決定ハンドラーが必要とするサービスインターフェース。
type DecisionServiceInterface interface {
	// ListDecisions は決定一覧をフィルタ・ページネーション付きで返す。
	ListDecisions(ctx context.Context, userID, role string, state filter.State, page, pageSize int) (*decision.DecisionListResult, error)
	// GetDecision は決定詳細を返す。未解錠の場合は全文がマスクされる。
	GetDecision(ctx context.Context, userID, role, id string) (*decision.DecisionDetail, error)
	// ListCategories は登録済みカテゴリの一覧を返す。
	ListCategories(ctx context.Context) ([]string, error)
}

// DecisionHandler は決定閲覧のHTTPハンドラー。
type DecisionHandler struct {
	service  DecisionServiceInterface
	pageSize int
}

// NewDecisionHandler はDecisionHandlerを生成する。
func NewDecisionHandler(service DecisionServiceInterface, pageSize int) *DecisionHandler {
	return &DecisionHandler{
		service:  service,
		pageSize: pageSize,
	}
}

// --- レスポンス型 ---

// typeInfoResponse は調達種別バッジのレスポンス。
type typeInfoResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// decisionSummaryResponse は決定一覧のサマリーレスポンス。
// 未解錠の場合、case_noとpreviewはマスク済み。
type decisionSummaryResponse struct {
	ID            string            `json:"id"`
	CaseNo        string            `json:"case_no"`
	Title         string            `json:"title"`
	Preview       string            `json:"preview"`
	Favorable     bool              `json:"favorable"`
	CourtDecision bool              `json:"court_decision"`
	Type          *typeInfoResponse `json:"type,omitempty"`
	PriceCredits  int               `json:"price_credits"`
	Unlocked      bool              `json:"unlocked"`
}

// decisionListResponse は決定一覧のレスポンス。
type decisionListResponse struct {
	Decisions []decisionSummaryResponse `json:"decisions"`
	Page      int                       `json:"page"`
	HasMore   bool                      `json:"has_more"`
}

// courtCaseResponse は紐付く裁判判決のレスポンス。
type courtCaseResponse struct {
	ID           string     `json:"id"`
	CaseNo       string     `json:"case_no"`
	MeetingNo    string     `json:"meeting_no,omitempty"`
	AgendaNo     string     `json:"agenda_no,omitempty"`
	Body         string     `json:"body"`
	DecisionDate *time.Time `json:"decision_date,omitempty"`
}

// decisionDetailResponse は決定詳細のレスポンス。
type decisionDetailResponse struct {
	ID            string              `json:"id"`
	CaseNo        string              `json:"case_no"`
	Title         string              `json:"title"`
	Summary       string              `json:"summary"`
	FullText      string              `json:"full_text"`
	Outcome       string              `json:"outcome"`
	Category      string              `json:"category"`
	Favorable     bool                `json:"favorable"`
	CourtDecision bool                `json:"court_decision"`
	Type          *typeInfoResponse   `json:"type,omitempty"`
	PriceCredits  int                 `json:"price_credits"`
	Unlocked      bool                `json:"unlocked"`
	CourtCases    []courtCaseResponse `json:"court_cases,omitempty"`
}

// ListDecisions は決定一覧を取得する。匿名アクセス可。
// GET /api/decisions?search=xxx&category=xxx&court_decision=true&page=N
func (h *DecisionHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	role := middleware.RoleFromContext(r.Context())

	q := r.URL.Query()
	state := filter.ParseValues(q)

	page := 1
	if pageStr := q.Get(filter.ParamPage); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPageError(pageStr))
			return
		}
		page = parsed
	}

	result, err := h.service.ListDecisions(r.Context(), userID, role, state, page, h.pageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := decisionListResponse{
		Decisions: make([]decisionSummaryResponse, len(result.Decisions)),
		Page:      result.Page,
		HasMore:   result.HasMore,
	}
	for i, d := range result.Decisions {
		resp.Decisions[i] = decisionSummaryResponse{
			ID:            d.ID,
			CaseNo:        d.CaseNo,
			Title:         d.Title,
			Preview:       d.Preview,
			Favorable:     d.Flags.Favorable,
			CourtDecision: d.Flags.CourtLinked,
			Type:          toTypeInfoResponse(d.Type),
			PriceCredits:  d.PriceCredits,
			Unlocked:      d.Unlocked,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetDecision は決定詳細を取得する。匿名アクセス可（マスク表示）。
// GET /api/decisions/:id
func (h *DecisionHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	role := middleware.RoleFromContext(r.Context())

	id := chi.URLParam(r, "id")

	detail, err := h.service.GetDecision(r.Context(), userID, role, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := decisionDetailResponse{
		ID:            detail.ID,
		CaseNo:        detail.CaseNo,
		Title:         detail.Title,
		Summary:       detail.Summary,
		FullText:      detail.FullText,
		Outcome:       detail.Outcome,
		Category:      detail.Category,
		Favorable:     detail.Flags.Favorable,
		CourtDecision: detail.Flags.CourtLinked,
		Type:          toTypeInfoResponse(detail.Type),
		PriceCredits:  detail.PriceCredits,
		Unlocked:      detail.Unlocked,
	}
	for _, cc := range detail.CourtCases {
		resp.CourtCases = append(resp.CourtCases, courtCaseResponse{
			ID:           cc.ID,
			CaseNo:       cc.CaseNo,
			MeetingNo:    cc.MeetingNo,
			AgendaNo:     cc.AgendaNo,
			Body:         cc.Body,
			DecisionDate: cc.DecisionDate,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListCategories はカテゴリ一覧を取得する。
// GET /api/categories
func (h *DecisionHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

// toTypeInfoResponse はドメインのTypeInfoをレスポンス型に変換する。
func toTypeInfoResponse(t *model.TypeInfo) *typeInfoResponse {
	if t == nil {
		return nil
	}
	return &typeInfoResponse{
		Code:  t.Code,
		Label: t.Label,
		Color: t.ColorClass,
	}
}

// --- 共通ヘルパー ---

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, middleware.StatusForCode(apiErr.Code), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// requireUserID はコンテキストからユーザーIDを取り出す。
// ない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "Oturum açmanız gerekiyor.",
			Category: "auth",
			Action:   "Lütfen giriş yapın.",
		})
		return "", false
	}
	return userID, true
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// 失敗時は400を書き込みfalseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "İstek gövdesi çözümlenemedi.",
			Category: "validation",
			Action:   "Geçerli bir JSON gövdesi gönderin.",
		})
		return false
	}
	return true
}
