// Package decision は決定一覧のコアロジックを提供する。
// 決定結果テキストからの意味フラグ分類、優先順ソート、
// 決定番号からの調達種別解決、要約と全文の間のフレーズハイライトを含む。
//
// 本パッケージの関数はすべて純関数・全域関数であり、欠損フィールドや
// 不正な形式の決定番号に対してもpanicせず既定値へ縮退する。
// 1件の不正レコードが一覧全体の描画を壊すことを防ぐためである。
package decision

import (
	"strings"

	"github.com/hitoshi/kararman/internal/model"
)

// 決定結果テキストの分類キーワード。ドメイン上の固定語彙。
const (
	// keywordCorrective は「düzeltici işlem」（是正措置）を示す。申立人有利。
	keywordCorrective = "düzeltici"
	// keywordCancellation は「iptal」（取消）を示す。申立人有利。
	keywordCancellation = "iptal"
	// keywordCourt は「mahkeme」（裁判所）への言及を示す。
	keywordCourt = "mahkeme"
)

// Classify は決定の自由記述フィールドから意味フラグを導出する。
//
// Favorableは決定結果テキストがdüzelticiまたはiptalを含む場合にtrue。
// 結果テキストが空の決定がFavorableになることはない。
// CourtLinkedは3つの独立したシグナル（明示フラグ、結果テキスト、タイトル）の
// いずれかが一致すればtrue。シグナル間に優先順位はない。
func Classify(d *model.Decision) model.Flags {
	if d == nil {
		return model.Flags{}
	}

	outcome := strings.ToLower(d.Outcome)
	title := strings.ToLower(d.Title)

	favorable := d.Outcome != "" &&
		(strings.Contains(outcome, keywordCorrective) || strings.Contains(outcome, keywordCancellation))

	courtLinked := d.HasCourtCase ||
		strings.Contains(outcome, keywordCourt) ||
		strings.Contains(title, keywordCourt)

	return model.Flags{
		Favorable:   favorable,
		CourtLinked: courtLinked,
	}
}
