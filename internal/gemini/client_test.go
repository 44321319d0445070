package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

// ClientがGeneratorインターフェースを満たすことを検証
func TestClient_ImplementsInterface(t *testing.T) {
	var _ Generator = (*Client)(nil)
}

func TestExtractText_EmptyResponse(t *testing.T) {
	if got := extractText(nil); got != "" {
		t.Errorf("extractText(nil) = %q, want empty", got)
	}
	if got := extractText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("extractText(empty) = %q, want empty", got)
	}
}

func TestExtractText_ConcatenatesParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{
						genai.Text("Sayın "),
						genai.Text("Kurul,"),
					},
				},
			},
		},
	}

	if got := extractText(resp); got != "Sayın Kurul," {
		t.Errorf("extractText = %q, want %q", got, "Sayın Kurul,")
	}
}

func TestExtractText_SkipsNilContent(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text("  metin  ")},
				},
			},
		},
	}

	if got := extractText(resp); got != "metin" {
		t.Errorf("extractText = %q, want trimmed %q", got, "metin")
	}
}
