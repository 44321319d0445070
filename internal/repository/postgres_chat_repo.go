package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/kararman/internal/model"
)

// PostgresChatRepo はPostgreSQLを使用した対話履歴リポジトリ。
type PostgresChatRepo struct {
	db *sql.DB
}

// NewPostgresChatRepo はPostgresChatRepoを生成する。
func NewPostgresChatRepo(db *sql.DB) *PostgresChatRepo {
	return &PostgresChatRepo{db: db}
}

// Append は対話メッセージを追記する。
func (r *PostgresChatRepo) Append(ctx context.Context, m *model.ChatMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.UserID, m.Role, m.Content, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("対話メッセージの保存に失敗しました: %w", err)
	}
	return nil
}

// ListRecentByUser はユーザーの直近の対話をcreated_at昇順で返す。
// 内部では降順でlimit件を取り、メモリ上で反転する。
func (r *PostgresChatRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, created_at
		 FROM chat_messages WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("対話履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var messages []*model.ChatMessage
	for rows.Next() {
		m := &model.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("対話行の読み取りに失敗しました: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("対話履歴の走査に失敗しました: %w", err)
	}

	// 昇順（古い順）に反転して返す
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// DeleteOlderThan は指定日時より古い対話を削除し、削除件数を返す。
func (r *PostgresChatRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("対話履歴の削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}

	return deleted, nil
}
