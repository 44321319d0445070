package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/kararman/internal/model"
)

// AssistantServiceInterface はアシスタントハンドラーが必要とするサービスインターフェース。
type AssistantServiceInterface interface {
	// Chat はユーザーのメッセージに対するアシスタント応答を生成する。
	Chat(ctx context.Context, userID, message string) (*model.ChatMessage, error)
	// History はユーザーの直近の対話履歴を古い順で返す。
	History(ctx context.Context, userID string) ([]*model.ChatMessage, error)
}

// AssistantHandler はAIアシスタント対話のHTTPハンドラー。
type AssistantHandler struct {
	service AssistantServiceInterface
}

// NewAssistantHandler はAssistantHandlerを生成する。
func NewAssistantHandler(service AssistantServiceInterface) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// chatRequest は対話リクエストのボディ。
type chatRequest struct {
	Message string `json:"message"`
}

// chatMessageResponse は対話メッセージのレスポンス。
type chatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Chat はアシスタントへメッセージを送り応答を取得する。
// POST /api/assistant/chat
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	reply, err := h.service.Chat(r.Context(), userID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChatMessageResponse(reply))
}

// History は対話履歴を取得する。
// GET /api/assistant/history
func (h *AssistantHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	messages, err := h.service.History(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]chatMessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = toChatMessageResponse(m)
	}

	writeJSON(w, http.StatusOK, map[string][]chatMessageResponse{"messages": resp})
}

// toChatMessageResponse はドメインのChatMessageをレスポンス型に変換する。
func toChatMessageResponse(m *model.ChatMessage) chatMessageResponse {
	return chatMessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
