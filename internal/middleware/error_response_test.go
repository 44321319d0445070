package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/kararman/internal/model"
)

// TestWriteErrorResponse は統一エラーフォーマットの出力をテストする。
func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, http.StatusNotFound, model.NewDecisionNotFoundError("d-404"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeDecisionNotFound {
		t.Errorf("Code = %q", body.Code)
	}
	if body.Category != "decision" {
		t.Errorf("Category = %q", body.Category)
	}
	if body.Message == "" || body.Action == "" {
		t.Error("Message and Action should be populated")
	}
}

// TestStatusForCode はエラーコードとHTTPステータスの対応をテストする。
func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{model.ErrCodeDecisionNotFound, http.StatusNotFound},
		{model.ErrCodePetitionNotFound, http.StatusNotFound},
		{model.ErrCodeInsufficientCredits, http.StatusPaymentRequired},
		{model.ErrCodeInvalidPage, http.StatusBadRequest},
		{model.ErrCodePetitionIncomplete, http.StatusBadRequest},
		{model.ErrCodeInvalidAttachment, http.StatusBadRequest},
		{model.ErrCodeEmptyMessage, http.StatusBadRequest},
		{model.ErrCodeGenerationFailed, http.StatusBadGateway},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := StatusForCode(c.code); got != c.want {
			t.Errorf("StatusForCode(%q) = %d, want %d", c.code, got, c.want)
		}
	}
}

// TestWriteAPIError はAPIErrorと一般エラーの書き分けをテストする。
func TestWriteAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAPIError(rec, model.NewInsufficientCreditsError())
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("APIError: status = %d, want 402", rec.Code)
	}

	rec = httptest.NewRecorder()
	WriteAPIError(rec, errors.New("db down"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("generic error: status = %d, want 500", rec.Code)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("Code = %q, want INTERNAL_ERROR", body.Code)
	}
}
