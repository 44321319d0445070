// Package petition はAI支援による申立書ドラフトの管理を提供する。
package petition

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hitoshi/kararman/internal/gemini"
	"github.com/hitoshi/kararman/internal/metrics"
	"github.com/hitoshi/kararman/internal/model"
	"github.com/hitoshi/kararman/internal/repository"
)

// systemPrompt は申立書生成のシステム指示。
const systemPrompt = `Sen kamu ihale hukuku alanında uzman bir hukuk yazarısın.
Verilen konu, olaylar ve emsal KİK kararlarından yola çıkarak Kamu İhale Kurumuna
sunulacak resmi bir itiraz dilekçesi taslağı hazırla.
Dilekçe resmi Türkçe ile yazılmalı ve dilekçe formatına uygun olmalıdır.`

// relatedDecisionLimit は生成時に参照する関連決定の最大件数。
const relatedDecisionLimit = 3

// PetitionService は申立書ドラフトのサービス。
type PetitionService struct {
	petitionRepo repository.PetitionRepository
	decisionRepo repository.DecisionRepository
	generator    gemini.Generator
	collector    metrics.MetricsCollector
	logger       *slog.Logger
	maxPages     int
	maxBytes     int64
}

// NewPetitionService はPetitionServiceの新しいインスタンスを生成する。
func NewPetitionService(
	petitionRepo repository.PetitionRepository,
	decisionRepo repository.DecisionRepository,
	generator gemini.Generator,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	maxPages int,
	maxBytes int64,
) *PetitionService {
	return &PetitionService{
		petitionRepo: petitionRepo,
		decisionRepo: decisionRepo,
		generator:    generator,
		collector:    collector,
		logger:       logger,
		maxPages:     maxPages,
		maxBytes:     maxBytes,
	}
}

// Create は申立書ドラフトを作成する。件名と事実関係は必須。
func (s *PetitionService) Create(ctx context.Context, userID, subject, facts, decisionQuery string) (*model.Petition, error) {
	subject = strings.TrimSpace(subject)
	facts = strings.TrimSpace(facts)
	if subject == "" || facts == "" {
		return nil, model.NewPetitionIncompleteError()
	}

	now := time.Now()
	p := &model.Petition{
		ID:            uuid.NewString(),
		UserID:        userID,
		Subject:       subject,
		Facts:         facts,
		DecisionQuery: strings.TrimSpace(decisionQuery),
		Status:        model.PetitionStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.petitionRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get はユーザー自身の申立書を取得する。
// 他ユーザーの申立書はPETITION_NOT_FOUNDとして扱う。
func (s *PetitionService) Get(ctx context.Context, userID, id string) (*model.Petition, error) {
	p, err := s.petitionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, model.NewPetitionNotFoundError(id)
	}
	return p, nil
}

// List はユーザーの申立書一覧を返す。
func (s *PetitionService) List(ctx context.Context, userID string) ([]*model.Petition, error) {
	return s.petitionRepo.ListByUserID(ctx, userID)
}

// Update は申立書の内容を更新する。
func (s *PetitionService) Update(ctx context.Context, userID, id, subject, facts, decisionQuery string) (*model.Petition, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	subject = strings.TrimSpace(subject)
	facts = strings.TrimSpace(facts)
	if subject == "" || facts == "" {
		return nil, model.NewPetitionIncompleteError()
	}

	p.Subject = subject
	p.Facts = facts
	p.DecisionQuery = strings.TrimSpace(decisionQuery)
	p.UpdatedAt = time.Now()

	if err := s.petitionRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete はユーザー自身の申立書を削除する。
func (s *PetitionService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.petitionRepo.DeleteByID(ctx, id)
}

// Generate は申立書の本文を生成する。
// 生成中はstatusをgeneratingにし、完了時にcompleted、失敗時にfailedへ遷移させる。
func (s *PetitionService) Generate(ctx context.Context, userID, id string) (*model.Petition, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.petitionRepo.UpdateStatus(ctx, p.ID, model.PetitionStatusGenerating, "", nil); err != nil {
		return nil, err
	}

	prompt, err := s.buildPrompt(ctx, p)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, systemPrompt, prompt)
	s.collector.RecordGeneration("petition", time.Since(start), err == nil)
	if err != nil {
		s.logger.Error("petition generation failed",
			slog.String("petition_id", p.ID),
			slog.String("error", err.Error()),
		)
		if updateErr := s.petitionRepo.UpdateStatus(ctx, p.ID, model.PetitionStatusFailed, "", nil); updateErr != nil {
			s.logger.Error("failed to mark petition as failed",
				slog.String("petition_id", p.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		return nil, model.NewGenerationFailedError()
	}

	completedAt := time.Now()
	if err := s.petitionRepo.UpdateStatus(ctx, p.ID, model.PetitionStatusCompleted, text, &completedAt); err != nil {
		return nil, err
	}

	p.GeneratedText = text
	p.Status = model.PetitionStatusCompleted
	p.CompletedAt = &completedAt
	return p, nil
}

// ValidateAttachment は添付PDFを検証しメタデータを記録する。
// サイズ上限・PDF構文・ページ数上限を検査する。
// ファイル本体は保存しない（保管は外部プラットフォームの責務）。
func (s *PetitionService) ValidateAttachment(ctx context.Context, userID, petitionID, fileName string, data []byte) (*model.PetitionAttachment, error) {
	p, err := s.Get(ctx, userID, petitionID)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > s.maxBytes {
		return nil, model.NewInvalidAttachmentError(
			fmt.Sprintf("dosya boyutu %d baytı aşamaz", s.maxBytes))
	}

	conf := pdfmodel.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return nil, model.NewInvalidAttachmentError("dosya geçerli bir PDF değil")
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, model.NewInvalidAttachmentError("sayfa sayısı okunamadı")
	}
	if pageCount > s.maxPages {
		return nil, model.NewInvalidAttachmentError(
			fmt.Sprintf("sayfa sayısı %d sayfayı aşamaz", s.maxPages))
	}

	a := &model.PetitionAttachment{
		ID:         uuid.NewString(),
		PetitionID: p.ID,
		FileName:   fileName,
		PageCount:  pageCount,
		SizeBytes:  int64(len(data)),
		CreatedAt:  time.Now(),
	}
	if err := s.petitionRepo.AddAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttachments は申立書の添付一覧を返す。
func (s *PetitionService) ListAttachments(ctx context.Context, userID, petitionID string) ([]*model.PetitionAttachment, error) {
	if _, err := s.Get(ctx, userID, petitionID); err != nil {
		return nil, err
	}
	return s.petitionRepo.ListAttachments(ctx, petitionID)
}

// buildPrompt は申立書と関連決定から生成プロンプトを構築する。
func (s *PetitionService) buildPrompt(ctx context.Context, p *model.Petition) (string, error) {
	var b strings.Builder
	b.WriteString("Konu: ")
	b.WriteString(p.Subject)
	b.WriteString("\n\nOlaylar:\n")
	b.WriteString(p.Facts)

	if p.DecisionQuery != "" {
		decisions, err := s.decisionRepo.List(ctx, repository.DecisionQuery{
			Search: p.DecisionQuery,
			Limit:  relatedDecisionLimit,
		})
		if err != nil {
			return "", err
		}
		if len(decisions) > 0 {
			b.WriteString("\n\nEmsal kararlar:\n")
			for _, d := range decisions {
				b.WriteString("- ")
				b.WriteString(d.Title)
				if d.Outcome != "" {
					b.WriteString(" (")
					b.WriteString(d.Outcome)
					b.WriteString(")")
				}
				b.WriteString("\n")
			}
		}
	}

	return b.String(), nil
}
