// Package assistant はKİK決定に関するAIアシスタント対話を提供する。
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kararman/internal/gemini"
	"github.com/hitoshi/kararman/internal/metrics"
	"github.com/hitoshi/kararman/internal/model"
	"github.com/hitoshi/kararman/internal/repository"
)

// systemPrompt はアシスタントの役割を定めるシステム指示。
// 法的助言ではなく情報提供に限定する。
const systemPrompt = `Sen Kamu İhale Kurumu (KİK) kararları konusunda uzmanlaşmış bir asistansın.
Kullanıcılara ihale itiraz süreçleri, KİK kararlarının anlamı ve emsal kararlar hakkında bilgi verirsin.
Yanıtların bilgilendirme amaçlıdır, hukuki tavsiye niteliği taşımaz.
Türkçe yanıt ver.`

// AssistantService はアシスタント対話のサービス。
// 対話履歴をコンテキストとして生成モデルに渡す。
type AssistantService struct {
	chatRepo      repository.ChatRepository
	generator     gemini.Generator
	collector     metrics.MetricsCollector
	logger        *slog.Logger
	contextLength int
}

// NewAssistantService はAssistantServiceの新しいインスタンスを生成する。
// contextLengthは生成モデルに渡す直近の対話メッセージ数。
func NewAssistantService(
	chatRepo repository.ChatRepository,
	generator gemini.Generator,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	contextLength int,
) *AssistantService {
	return &AssistantService{
		chatRepo:      chatRepo,
		generator:     generator,
		collector:     collector,
		logger:        logger,
		contextLength: contextLength,
	}
}

// Chat は利用者のメッセージに対するアシスタントの応答を生成する。
// 利用者メッセージと応答は対話履歴として保存される。
func (s *AssistantService) Chat(ctx context.Context, userID, message string) (*model.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, model.NewEmptyMessageError()
	}

	history, err := s.chatRepo.ListRecentByUser(ctx, userID, s.contextLength)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := s.generator.Generate(ctx, systemPrompt, buildPrompt(history, message))
	s.collector.RecordGeneration("chat", time.Since(start), err == nil)
	if err != nil {
		s.logger.Error("chat generation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewGenerationFailedError()
	}

	now := time.Now()
	userMsg := &model.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      model.ChatRoleUser,
		Content:   message,
		CreatedAt: now,
	}
	if err := s.chatRepo.Append(ctx, userMsg); err != nil {
		return nil, err
	}

	assistantMsg := &model.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      model.ChatRoleAssistant,
		Content:   reply,
		CreatedAt: now,
	}
	if err := s.chatRepo.Append(ctx, assistantMsg); err != nil {
		return nil, err
	}

	return assistantMsg, nil
}

// History はユーザーの直近の対話履歴を古い順で返す。
func (s *AssistantService) History(ctx context.Context, userID string) ([]*model.ChatMessage, error) {
	return s.chatRepo.ListRecentByUser(ctx, userID, s.contextLength)
}

// buildPrompt は対話履歴と新しいメッセージからプロンプトを構築する。
func buildPrompt(history []*model.ChatMessage, message string) string {
	var b strings.Builder
	for _, m := range history {
		switch m.Role {
		case model.ChatRoleUser:
			b.WriteString("Kullanıcı: ")
		case model.ChatRoleAssistant:
			b.WriteString("Asistan: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Kullanıcı: ")
	b.WriteString(message)
	return b.String()
}
