package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/kararman/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "Beklenmeyen bir hata oluştu.",
		Category: "system",
		Action:   "Lütfen daha sonra tekrar deneyin.",
	})
}

// StatusForCode はAPIエラーコードに対応するHTTPステータスコードを返す。
func StatusForCode(code string) int {
	switch code {
	case model.ErrCodeDecisionNotFound, model.ErrCodePetitionNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientCredits:
		return http.StatusPaymentRequired
	case model.ErrCodeInvalidPage, model.ErrCodePetitionIncomplete,
		model.ErrCodeInvalidAttachment, model.ErrCodeEmptyMessage:
		return http.StatusBadRequest
	case model.ErrCodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteAPIError はerrが*model.APIErrorであれば対応するステータスで、
// それ以外は500でレスポンスを書き込む。
func WriteAPIError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*model.APIError); ok {
		WriteErrorResponse(w, StatusForCode(apiErr.Code), apiErr)
		return
	}
	WriteInternalServerError(w)
}
