// Package filter は決定一覧のフィルタ状態とアドレス可能な
// ロケーション（URLクエリ）との同期を提供する。
//
// Stateのパース・書き出しはクライアント側のCoordinatorと
// サーバー側の一覧ハンドラーが同じクエリ契約を共有するための共通部品。
package filter

import "net/url"

// クエリパラメータのキー。
const (
	ParamSearch    = "search"
	ParamCategory  = "category"
	ParamCourtOnly = "court_decision"
	ParamPage      = "page"
)

// CategoryAll はカテゴリ未設定を表す番兵値。
// categoryパラメータの欠落と等価に扱う。
const CategoryAll = "all"

// State は一覧ビュー1つ分のフィルタ三つ組。
type State struct {
	SearchTerm string
	Category   string // 未設定は CategoryAll
	CourtOnly  bool
}

// ParseValues はロケーションのクエリからStateを復元する。
// categoryの欠落は"all"、court_decisionの欠落はfalseと等価。
func ParseValues(q url.Values) State {
	category := q.Get(ParamCategory)
	if category == "" {
		category = CategoryAll
	}
	return State{
		SearchTerm: q.Get(ParamSearch),
		Category:   category,
		CourtOnly:  q.Get(ParamCourtOnly) == "true",
	}
}

// Apply はStateをparamsへ書き込む。既定値と等価なフィルタは
// パラメータごと除去し、フィルタ変更後の再ページングのために
// pageパラメータを必ず除去する。フィルタ以外のパラメータは保持する。
func (s State) Apply(params url.Values) {
	if s.SearchTerm != "" {
		params.Set(ParamSearch, s.SearchTerm)
	} else {
		params.Del(ParamSearch)
	}

	if s.Category != "" && s.Category != CategoryAll {
		params.Set(ParamCategory, s.Category)
	} else {
		params.Del(ParamCategory)
	}

	if s.CourtOnly {
		params.Set(ParamCourtOnly, "true")
	} else {
		params.Del(ParamCourtOnly)
	}

	params.Del(ParamPage)
}

// cloneValues はurl.Valuesの浅い複製を返す。
func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
