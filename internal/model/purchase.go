// Package model はドメインモデルを定義する。
package model

import "time"

// Purchase はユーザーと決定の間のエンタイトルメント（解錠済み）を表す。
// クレジット残高の増減はPostgresのストアドファンクションに委譲されており、
// このレコードは解錠の事実のみを記録する。
type Purchase struct {
	ID         string
	UserID     string
	DecisionID string
	Credits    int // 解錠時に消費したクレジット数
	CreatedAt  time.Time
}

// Petition はAI支援で起草する申立書のドラフト。
type Petition struct {
	ID            string
	UserID        string
	Subject       string
	Facts         string
	DecisionQuery string // 参照する決定の検索語（任意）
	GeneratedText string
	Status        PetitionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// PetitionStatus は申立書ドラフトの状態を表す。
type PetitionStatus string

const (
	// PetitionStatusDraft は下書き状態。
	PetitionStatusDraft PetitionStatus = "draft"
	// PetitionStatusGenerating は本文生成中の状態。
	PetitionStatusGenerating PetitionStatus = "generating"
	// PetitionStatusCompleted は本文生成が完了した状態。
	PetitionStatusCompleted PetitionStatus = "completed"
	// PetitionStatusFailed は本文生成に失敗した状態。
	PetitionStatusFailed PetitionStatus = "failed"
)

// PetitionAttachment は申立書に添付されたPDFのメタデータ。
// ファイル本体の保管は外部プラットフォームの責務であり、
// 本サービスは検証結果とメタデータのみを保持する。
type PetitionAttachment struct {
	ID         string
	PetitionID string
	FileName   string
	PageCount  int
	SizeBytes  int64
	CreatedAt  time.Time
}

// ChatMessage はAIアシスタントとの対話1ターンを表す。
type ChatMessage struct {
	ID        string
	UserID    string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}

// ChatRole は対話メッセージの発話者を表す。
type ChatRole string

const (
	// ChatRoleUser は利用者の発話。
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant はアシスタントの応答。
	ChatRoleAssistant ChatRole = "assistant"
)
