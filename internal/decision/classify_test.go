package decision

import (
	"testing"

	"github.com/hitoshi/kararman/internal/model"
)

// TestClassify_AllFieldsEmpty は全テキストフィールドが空の決定でも
// panicせずゼロ値フラグが返ることをテストする。
func TestClassify_AllFieldsEmpty(t *testing.T) {
	flags := Classify(&model.Decision{})

	if flags.Favorable {
		t.Error("expected Favorable to be false for empty decision")
	}
	if flags.CourtLinked {
		t.Error("expected CourtLinked to be false for empty decision")
	}
}

// TestClassify_NilDecision はnil入力でゼロ値フラグが返ることをテストする。
func TestClassify_NilDecision(t *testing.T) {
	flags := Classify(nil)

	if flags != (model.Flags{}) {
		t.Errorf("flags = %+v, want zero value", flags)
	}
}

// TestClassify_FavorableKeywords は是正・取消キーワードが
// 大文字小文字を無視して一致することをテストする。
func TestClassify_FavorableKeywords(t *testing.T) {
	tests := []struct {
		name    string
		outcome string
		want    bool
	}{
		{"corrective lowercase", "düzeltici işlem belirlenmesine", true},
		{"corrective uppercase", "DÜZELTICI işlem", true},
		{"cancellation", "İhalenin iptaline karar verildi", true},
		{"cancellation uppercase", "IPTAL kararı", true},
		{"unfavorable", "itirazen şikayet başvurusunun reddine", false},
		{"empty outcome", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := Classify(&model.Decision{Outcome: tt.outcome})
			if flags.Favorable != tt.want {
				t.Errorf("Favorable = %v, want %v (outcome=%q)", flags.Favorable, tt.want, tt.outcome)
			}
		})
	}
}

// TestClassify_CourtLinkedSignals は3つの独立シグナルのいずれか1つで
// CourtLinkedがtrueになることをテストする。
func TestClassify_CourtLinkedSignals(t *testing.T) {
	tests := []struct {
		name string
		d    model.Decision
		want bool
	}{
		{"explicit flag", model.Decision{HasCourtCase: true}, true},
		{"outcome keyword", model.Decision{Outcome: "mahkeme kararı ile iptal"}, true},
		{"title keyword", model.Decision{Title: "Mahkeme kararı üzerine düzeltici işlem"}, true},
		{"no signal", model.Decision{Outcome: "reddine", Title: "İhale itirazı"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := Classify(&tt.d)
			if flags.CourtLinked != tt.want {
				t.Errorf("CourtLinked = %v, want %v", flags.CourtLinked, tt.want)
			}
		})
	}
}
