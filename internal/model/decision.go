// Package model はドメインモデルを定義する。
package model

import "time"

// Decision は公共調達機構（KİK）の審査決定1件を表す。
// FullTextはペイウォール対象であり、エンタイトルメントのない利用者には
// マスク済みプレビューのみを返す。
type Decision struct {
	ID             string
	CaseNo         string // 決定番号。"YEAR/TYPECODE..." 形式（例: "2024/UY1234"）。一意ではない
	Title          string
	Summary        string
	FullText       string // 決定全文（HTML）。サニタイズ済み
	Outcome        string // 決定結果の自由記述
	Category       string // 任意の分類ラベル。CaseNoのタイプコードとは独立
	SubmissionType string
	PriceCredits   int  // 解錠に必要なクレジット数
	HasCourtCase   bool // court_casesテーブルに紐付きがあるか。courtlinkワーカーが設定する
	DecisionDate   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Flags はDecisionから導出される意味フラグ。
// Favorable（緑）とCourtLinked（青）は一覧の優先順ソートに使用される。
type Flags struct {
	Favorable   bool // 決定結果が申立人有利（düzeltici / iptal）
	CourtLinked bool // 後続の裁判手続きと紐付いている
}

// TypeInfo はCaseNoのタイプコードから導出される調達種別バッジ。
type TypeInfo struct {
	Code        string // 抽出されたタイプコード（UY, M, H, D など）
	DisplayText string // "2024/UY" のような表示用短縮形
	Label       string
	Description string
	ColorClass  string
}

// CourtCase はKİK決定に対する後続の裁判所判決を表す。
// DecisionCaseNoはcourtlinkワーカーが本文から抽出して設定するまでは空。
type CourtCase struct {
	ID             string
	CaseNo         string
	DecisionCaseNo string // 紐付くKİK決定のCaseNo。未紐付けの場合は空
	Body           string // 判決本文（HTML）
	MeetingNo      string
	AgendaNo       string
	DecisionDate   *time.Time
	LinkedAt       *time.Time
	CreatedAt      time.Time
}
