package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kararman/internal/model"
)

// PetitionServiceInterface は申立書ハンドラーが必要とするサービスインターフェース。
type PetitionServiceInterface interface {
	Create(ctx context.Context, userID, subject, facts, decisionQuery string) (*model.Petition, error)
	Get(ctx context.Context, userID, id string) (*model.Petition, error)
	List(ctx context.Context, userID string) ([]*model.Petition, error)
	Update(ctx context.Context, userID, id, subject, facts, decisionQuery string) (*model.Petition, error)
	Delete(ctx context.Context, userID, id string) error
	// Generate は申立書本文をAIで生成し、完了した申立書を返す。
	Generate(ctx context.Context, userID, id string) (*model.Petition, error)
	// ValidateAttachment は添付PDFを検証しメタデータを記録する。
	ValidateAttachment(ctx context.Context, userID, petitionID, fileName string, data []byte) (*model.PetitionAttachment, error)
	ListAttachments(ctx context.Context, userID, petitionID string) ([]*model.PetitionAttachment, error)
}

// PetitionHandler は申立書起草のHTTPハンドラー。
type PetitionHandler struct {
	service  PetitionServiceInterface
	maxBytes int64
}

// NewPetitionHandler はPetitionHandlerを生成する。
func NewPetitionHandler(service PetitionServiceInterface, maxBytes int64) *PetitionHandler {
	return &PetitionHandler{
		service:  service,
		maxBytes: maxBytes,
	}
}

// petitionRequest は申立書作成・更新リクエストのボディ。
type petitionRequest struct {
	Subject       string `json:"subject"`
	Facts         string `json:"facts"`
	DecisionQuery string `json:"decision_query"`
}

// petitionResponse は申立書のレスポンス。
type petitionResponse struct {
	ID            string     `json:"id"`
	Subject       string     `json:"subject"`
	Facts         string     `json:"facts"`
	DecisionQuery string     `json:"decision_query,omitempty"`
	GeneratedText string     `json:"generated_text,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// attachmentResponse は添付メタデータのレスポンス。
type attachmentResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	PageCount int       `json:"page_count"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Create は申立書ドラフトを作成する。
// POST /api/petitions
func (h *PetitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req petitionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), userID, req.Subject, req.Facts, req.DecisionQuery)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPetitionResponse(p))
}

// List はユーザーの申立書一覧を取得する。
// GET /api/petitions
func (h *PetitionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	petitions, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]petitionResponse, len(petitions))
	for i, p := range petitions {
		resp[i] = toPetitionResponse(p)
	}

	writeJSON(w, http.StatusOK, map[string][]petitionResponse{"petitions": resp})
}

// Get は申立書の詳細を取得する。
// GET /api/petitions/:id
func (h *PetitionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPetitionResponse(p))
}

// Update は申立書の内容を更新する。
// PUT /api/petitions/:id
func (h *PetitionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req petitionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req.Subject, req.Facts, req.DecisionQuery)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPetitionResponse(p))
}

// Delete は申立書を削除する。
// DELETE /api/petitions/:id
func (h *PetitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Generate は申立書本文をAIで生成する。
// POST /api/petitions/:id/generate
func (h *PetitionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Generate(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPetitionResponse(p))
}

// UploadAttachment は添付PDFを検証しメタデータを登録する。
// multipart/form-dataの"file"フィールドを受け付ける。
// POST /api/petitions/:id/attachments
func (h *PetitionHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	// multipartのメモリ使用量もサイズ上限に合わせて制限する
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+4096)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAttachmentError("dosya yüklenemedi"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAttachmentError("file alanı eksik"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAttachmentError("dosya okunamadı"))
		return
	}

	a, err := h.service.ValidateAttachment(r.Context(), userID, chi.URLParam(r, "id"), header.Filename, data)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAttachmentResponse(a))
}

// ListAttachments は申立書の添付一覧を取得する。
// GET /api/petitions/:id/attachments
func (h *PetitionHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	attachments, err := h.service.ListAttachments(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]attachmentResponse, len(attachments))
	for i, a := range attachments {
		resp[i] = toAttachmentResponse(a)
	}

	writeJSON(w, http.StatusOK, map[string][]attachmentResponse{"attachments": resp})
}

// toPetitionResponse はドメインのPetitionをレスポンス型に変換する。
func toPetitionResponse(p *model.Petition) petitionResponse {
	return petitionResponse{
		ID:            p.ID,
		Subject:       p.Subject,
		Facts:         p.Facts,
		DecisionQuery: p.DecisionQuery,
		GeneratedText: p.GeneratedText,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		CompletedAt:   p.CompletedAt,
	}
}

// toAttachmentResponse はドメインのPetitionAttachmentをレスポンス型に変換する。
func toAttachmentResponse(a *model.PetitionAttachment) attachmentResponse {
	return attachmentResponse{
		ID:        a.ID,
		FileName:  a.FileName,
		PageCount: a.PageCount,
		SizeBytes: a.SizeBytes,
		CreatedAt: a.CreatedAt,
	}
}
