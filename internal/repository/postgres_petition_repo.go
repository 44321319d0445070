package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/kararman/internal/model"
)

// PostgresPetitionRepo はPostgreSQLを使用した申立書リポジトリ。
type PostgresPetitionRepo struct {
	db *sql.DB
}

// NewPostgresPetitionRepo はPostgresPetitionRepoを生成する。
func NewPostgresPetitionRepo(db *sql.DB) *PostgresPetitionRepo {
	return &PostgresPetitionRepo{db: db}
}

// Create は申立書ドラフトを作成する。
func (r *PostgresPetitionRepo) Create(ctx context.Context, p *model.Petition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO petitions (id, user_id, subject, facts, decision_query,
		                        generated_text, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Subject, p.Facts, nullString(p.DecisionQuery),
		nullString(p.GeneratedText), p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("申立書の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの申立書を取得する。見つからない場合はnilを返す。
func (r *PostgresPetitionRepo) FindByID(ctx context.Context, id string) (*model.Petition, error) {
	p := &model.Petition{}
	var decisionQuery, generatedText sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, subject, facts, decision_query, generated_text,
		        status, created_at, updated_at, completed_at
		 FROM petitions WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.UserID, &p.Subject, &p.Facts, &decisionQuery, &generatedText,
		&p.Status, &p.CreatedAt, &p.UpdatedAt, &completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("申立書の取得に失敗しました: %w", err)
	}

	p.DecisionQuery = nullStringValue(decisionQuery)
	p.GeneratedText = nullStringValue(generatedText)
	p.CompletedAt = nullTimeValue(completedAt)

	return p, nil
}

// ListByUserID はユーザーの申立書一覧をcreated_at降順で返す。
func (r *PostgresPetitionRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Petition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, subject, facts, decision_query, generated_text,
		        status, created_at, updated_at, completed_at
		 FROM petitions WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("申立書一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var petitions []*model.Petition
	for rows.Next() {
		p := &model.Petition{}
		var decisionQuery, generatedText sql.NullString
		var completedAt sql.NullTime

		err := rows.Scan(
			&p.ID, &p.UserID, &p.Subject, &p.Facts, &decisionQuery, &generatedText,
			&p.Status, &p.CreatedAt, &p.UpdatedAt, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("申立書行の読み取りに失敗しました: %w", err)
		}

		p.DecisionQuery = nullStringValue(decisionQuery)
		p.GeneratedText = nullStringValue(generatedText)
		p.CompletedAt = nullTimeValue(completedAt)

		petitions = append(petitions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("申立書一覧の走査に失敗しました: %w", err)
	}

	return petitions, nil
}

// Update は申立書の内容を上書き更新する。
func (r *PostgresPetitionRepo) Update(ctx context.Context, p *model.Petition) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE petitions SET
		    subject = $2, facts = $3, decision_query = $4, updated_at = $5
		 WHERE id = $1`,
		p.ID, p.Subject, p.Facts, nullString(p.DecisionQuery), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("申立書の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus は申立書の状態と生成本文を更新する。
func (r *PostgresPetitionRepo) UpdateStatus(ctx context.Context, id string, status model.PetitionStatus, generatedText string, completedAt *time.Time) error {
	var ca sql.NullTime
	if completedAt != nil {
		ca = sql.NullTime{Time: *completedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE petitions SET
		    status = $2, generated_text = $3, completed_at = $4, updated_at = now()
		 WHERE id = $1`,
		id, status, nullString(generatedText), ca,
	)
	if err != nil {
		return fmt.Errorf("申立書状態の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの申立書を削除する。添付メタデータはCASCADE削除される。
func (r *PostgresPetitionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM petitions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("申立書の削除に失敗しました: %w", err)
	}
	return nil
}

// AddAttachment は検証済み添付PDFのメタデータを記録する。
func (r *PostgresPetitionRepo) AddAttachment(ctx context.Context, a *model.PetitionAttachment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO petition_attachments (id, petition_id, file_name,
		                                   page_count, size_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.PetitionID, a.FileName, a.PageCount, a.SizeBytes, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("添付ファイルの記録に失敗しました: %w", err)
	}
	return nil
}

// ListAttachments は申立書の添付一覧を返す。
func (r *PostgresPetitionRepo) ListAttachments(ctx context.Context, petitionID string) ([]*model.PetitionAttachment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, petition_id, file_name, page_count, size_bytes, created_at
		 FROM petition_attachments WHERE petition_id = $1
		 ORDER BY created_at ASC`,
		petitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("添付一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var attachments []*model.PetitionAttachment
	for rows.Next() {
		a := &model.PetitionAttachment{}
		err := rows.Scan(
			&a.ID, &a.PetitionID, &a.FileName, &a.PageCount, &a.SizeBytes, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("添付行の読み取りに失敗しました: %w", err)
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("添付一覧の走査に失敗しました: %w", err)
	}

	return attachments, nil
}
