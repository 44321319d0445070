// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/kararman/internal/model"
)

// DecisionQuery は決定一覧の検索条件。
type DecisionQuery struct {
	// Search はタイトル・決定番号に対するキーワード検索語。空なら条件なし。
	Search string
	// Category はカテゴリの完全一致条件。空または"all"なら条件なし。
	Category string
	// CourtOnly がtrueの場合、裁判手続きと紐付いた決定のみを返す。
	CourtOnly bool
	// Offset / Limit はページネーション用。Limitは呼び出し側が設定する。
	Offset int
	Limit  int
}

// DecisionRepository は決定データの永続化インターフェース。
type DecisionRepository interface {
	// List は検索条件に合致する決定をcreated_at降順で取得する。
	// ソートの優先順位付け（裁判紐付き・有利決定）はサービス層が行う。
	List(ctx context.Context, q DecisionQuery) ([]*model.Decision, error)

	// FindByID は指定IDの決定を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Decision, error)

	// ListCategories は登録済みカテゴリの一覧を重複なしで返す。
	ListCategories(ctx context.Context) ([]string, error)

	// SetCourtCaseFlag は決定のhas_court_caseフラグを更新し、
	// 更新された決定数を返す。courtlinkワーカーが紐付け確定時に呼び出す。
	SetCourtCaseFlag(ctx context.Context, caseNo string, has bool) (int64, error)
}

// PurchaseRepository はエンタイトルメント（解錠）とクレジット残高の永続化インターフェース。
// 残高の増減はPostgresのストアドファンクションで原子的に行う。
type PurchaseRepository interface {
	// Unlock はconsume_creditストアドファンクションを呼び出し、
	// クレジット消費と購入レコード作成を単一トランザクションで行う。
	// 残高不足の場合はErrInsufficientCreditsを返す。
	Unlock(ctx context.Context, userID, decisionID string, credits int) (*model.Purchase, error)

	// Exists はユーザーが指定決定を解錠済みかを返す。
	Exists(ctx context.Context, userID, decisionID string) (bool, error)

	// Find はユーザーの指定決定に対する購入レコードを返す。
	// 未購入の場合はnilを返す。
	Find(ctx context.Context, userID, decisionID string) (*model.Purchase, error)

	// ListDecisionIDsByUser はユーザーが解錠済みの決定IDを返す。
	ListDecisionIDsByUser(ctx context.Context, userID string) ([]string, error)

	// Balance はユーザーのクレジット残高を返す。レコードがない場合は0を返す。
	Balance(ctx context.Context, userID string) (int, error)

	// Grant はgrant_creditsストアドファンクションを呼び出し残高を加算する。
	Grant(ctx context.Context, userID string, credits int) error
}

// CourtCaseRepository は裁判所判決データの永続化インターフェース。
type CourtCaseRepository interface {
	// ListUnlinked は決定番号が未抽出の判決を古い順に取得する。
	ListUnlinked(ctx context.Context, limit int) ([]*model.CourtCase, error)

	// Link は判決に抽出済み決定番号を設定しlinked_atを記録する。
	Link(ctx context.Context, id, decisionCaseNo string, linkedAt time.Time) error

	// ListByDecisionCaseNo は指定決定番号に紐付く判決を返す。
	ListByDecisionCaseNo(ctx context.Context, caseNo string) ([]*model.CourtCase, error)
}

// PetitionRepository は申立書ドラフトの永続化インターフェース。
type PetitionRepository interface {
	// Create は申立書ドラフトを作成する。
	Create(ctx context.Context, p *model.Petition) error

	// FindByID は指定IDの申立書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Petition, error)

	// ListByUserID はユーザーの申立書一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Petition, error)

	// Update は申立書の内容を上書き更新する。
	Update(ctx context.Context, p *model.Petition) error

	// UpdateStatus は申立書の状態と生成本文を更新する。
	// completedAtがnilでない場合はcompleted_atも設定する。
	UpdateStatus(ctx context.Context, id string, status model.PetitionStatus, generatedText string, completedAt *time.Time) error

	// DeleteByID は指定IDの申立書を削除する。添付メタデータはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// AddAttachment は検証済み添付PDFのメタデータを記録する。
	AddAttachment(ctx context.Context, a *model.PetitionAttachment) error

	// ListAttachments は申立書の添付一覧を返す。
	ListAttachments(ctx context.Context, petitionID string) ([]*model.PetitionAttachment, error)
}

// ChatRepository はアシスタント対話履歴の永続化インターフェース。
type ChatRepository interface {
	// Append は対話メッセージを追記する。
	Append(ctx context.Context, m *model.ChatMessage) error

	// ListRecentByUser はユーザーの直近の対話をcreated_at昇順で返す。
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*model.ChatMessage, error)

	// DeleteOlderThan は指定日時より古い対話を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
