package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/kararman/internal/model"
)

// ErrInsufficientCredits はクレジット残高不足を表す。
var ErrInsufficientCredits = errors.New("クレジット残高が不足しています")

// insufficientCreditsMessage はconsume_creditが残高不足時にRAISEする例外メッセージ。
const insufficientCreditsMessage = "INSUFFICIENT_CREDITS"

// PostgresPurchaseRepo はPostgreSQLを使用した購入・クレジットリポジトリ。
// 残高の増減はストアドファンクション（consume_credit / grant_credits）に
// 委譲し、アプリケーション側ではread-modify-writeを行わない。
type PostgresPurchaseRepo struct {
	db *sql.DB
}

// NewPostgresPurchaseRepo はPostgresPurchaseRepoを生成する。
func NewPostgresPurchaseRepo(db *sql.DB) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{db: db}
}

// Unlock はconsume_creditストアドファンクションを呼び出し、
// クレジット消費と購入レコード作成を単一トランザクションで行う。
// 残高不足の場合はErrInsufficientCreditsを返す。
func (r *PostgresPurchaseRepo) Unlock(ctx context.Context, userID, decisionID string, credits int) (*model.Purchase, error) {
	p := &model.Purchase{
		UserID:     userID,
		DecisionID: decisionID,
		Credits:    credits,
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT purchase_id, created_at FROM consume_credit($1, $2, $3)`,
		userID, decisionID, credits,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Message == insufficientCreditsMessage {
			return nil, ErrInsufficientCredits
		}
		return nil, fmt.Errorf("決定の解錠に失敗しました: %w", err)
	}

	return p, nil
}

// Exists はユーザーが指定決定を解錠済みかを返す。
func (r *PostgresPurchaseRepo) Exists(ctx context.Context, userID, decisionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
		    SELECT 1 FROM purchases WHERE user_id = $1 AND decision_id = $2
		 )`,
		userID, decisionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("解錠状態の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Find はユーザーの指定決定に対する購入レコードを返す。未購入の場合はnilを返す。
func (r *PostgresPurchaseRepo) Find(ctx context.Context, userID, decisionID string) (*model.Purchase, error) {
	p := &model.Purchase{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, decision_id, credits, created_at
		 FROM purchases WHERE user_id = $1 AND decision_id = $2`,
		userID, decisionID,
	).Scan(&p.ID, &p.UserID, &p.DecisionID, &p.Credits, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購入レコードの取得に失敗しました: %w", err)
	}
	return p, nil
}

// ListDecisionIDsByUser はユーザーが解錠済みの決定IDを返す。
func (r *PostgresPurchaseRepo) ListDecisionIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT decision_id FROM purchases WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("解錠済み決定一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("解錠済み決定行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("解錠済み決定一覧の走査に失敗しました: %w", err)
	}

	return ids, nil
}

// Balance はユーザーのクレジット残高を返す。レコードがない場合は0を返す。
func (r *PostgresPurchaseRepo) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.db.QueryRowContext(ctx,
		`SELECT credit_balance($1)`,
		userID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("クレジット残高の取得に失敗しました: %w", err)
	}
	return balance, nil
}

// Grant はgrant_creditsストアドファンクションを呼び出し残高を加算する。
func (r *PostgresPurchaseRepo) Grant(ctx context.Context, userID string, credits int) error {
	_, err := r.db.ExecContext(ctx,
		`SELECT grant_credits($1, $2)`,
		userID, credits,
	)
	if err != nil {
		return fmt.Errorf("クレジット付与に失敗しました: %w", err)
	}
	return nil
}
