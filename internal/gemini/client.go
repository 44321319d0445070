// Package gemini はGoogle Gemini APIのクライアントを提供する。
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator はテキスト生成のインターフェース。
// サービス層はこのインターフェース経由で生成を呼び出す。
type Generator interface {
	// Generate はシステム指示とプロンプトからテキストを生成する。
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client はGemini APIのクライアント。
type Client struct {
	client *genai.Client
	model  string
}

// New はGeminiクライアントを生成する。
// modelは使用するモデル名（例: "gemini-1.5-flash"）。
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの生成に失敗しました: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Generate はシステム指示とプロンプトからテキストを生成する。
// 候補が空の場合はエラーを返す。
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := c.client.GenerativeModel(c.model)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("テキスト生成に失敗しました: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("生成結果が空です")
	}
	return text, nil
}

// Close は内部クライアントを閉じる。
func (c *Client) Close() error {
	return c.client.Close()
}

// extractText は応答の全テキストパートを連結する。
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
