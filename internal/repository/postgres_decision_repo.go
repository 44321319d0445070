package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/hitoshi/kararman/internal/model"
)

// psql はPostgreSQLのプレースホルダ形式（$1, $2, ...）を使うクエリビルダ。
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// decisionColumns はdecisionsテーブルのSELECT対象カラム。
var decisionColumns = []string{
	"id", "case_no", "title", "summary", "full_text", "outcome",
	"category", "submission_type", "price_credits", "has_court_case",
	"decision_date", "created_at", "updated_at",
}

// PostgresDecisionRepo はPostgreSQLを使用した決定リポジトリ。
type PostgresDecisionRepo struct {
	db *sql.DB
}

// NewPostgresDecisionRepo はPostgresDecisionRepoを生成する。
func NewPostgresDecisionRepo(db *sql.DB) *PostgresDecisionRepo {
	return &PostgresDecisionRepo{db: db}
}

// buildListQuery は検索条件から一覧SQLを構築する。
func buildListQuery(q DecisionQuery) (string, []any, error) {
	builder := psql.Select(decisionColumns...).
		From("decisions").
		OrderBy("created_at DESC", "id DESC")

	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"case_no": pattern},
		})
	}
	if q.Category != "" && q.Category != "all" {
		builder = builder.Where(sq.Eq{"category": q.Category})
	}
	if q.CourtOnly {
		builder = builder.Where(sq.Or{
			sq.Eq{"has_court_case": true},
			sq.ILike{"outcome": "%mahkeme%"},
			sq.ILike{"title": "%mahkeme%"},
		})
	}
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		builder = builder.Offset(uint64(q.Offset))
	}

	return builder.ToSql()
}

// List は検索条件に合致する決定をcreated_at降順で取得する。
// 検索語はタイトル・決定番号に対するILIKE部分一致。
func (r *PostgresDecisionRepo) List(ctx context.Context, q DecisionQuery) ([]*model.Decision, error) {
	query, args, err := buildListQuery(q)
	if err != nil {
		return nil, fmt.Errorf("決定一覧クエリの構築に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("決定一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var decisions []*model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("決定行の読み取りに失敗しました: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("決定一覧の走査に失敗しました: %w", err)
	}

	return decisions, nil
}

// FindByID は指定IDの決定を取得する。見つからない場合はnilを返す。
func (r *PostgresDecisionRepo) FindByID(ctx context.Context, id string) (*model.Decision, error) {
	query, args, err := psql.Select(decisionColumns...).
		From("decisions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("決定取得クエリの構築に失敗しました: %w", err)
	}

	d, err := scanDecision(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("決定の取得に失敗しました: %w", err)
	}
	return d, nil
}

// ListCategories は登録済みカテゴリの一覧を重複なしで返す。
func (r *PostgresDecisionRepo) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM decisions
		 WHERE category <> '' ORDER BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("カテゴリ行の読み取りに失敗しました: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の走査に失敗しました: %w", err)
	}

	return categories, nil
}

// SetCourtCaseFlag は決定のhas_court_caseフラグを更新し、更新件数を返す。
// 同一決定番号の決定が複数ある場合は全件を更新する。
func (r *PostgresDecisionRepo) SetCourtCaseFlag(ctx context.Context, caseNo string, has bool) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE decisions SET has_court_case = $2, updated_at = now()
		 WHERE case_no = $1`,
		caseNo, has,
	)
	if err != nil {
		return 0, fmt.Errorf("裁判紐付けフラグの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return affected, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDecision は1行分の決定をスキャンする。
func scanDecision(row rowScanner) (*model.Decision, error) {
	d := &model.Decision{}
	var summary, fullText, outcome, category, submissionType sql.NullString
	var decisionDate sql.NullTime

	err := row.Scan(
		&d.ID, &d.CaseNo, &d.Title, &summary, &fullText, &outcome,
		&category, &submissionType, &d.PriceCredits, &d.HasCourtCase,
		&decisionDate, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Summary = nullStringValue(summary)
	d.FullText = nullStringValue(fullText)
	d.Outcome = nullStringValue(outcome)
	d.Category = nullStringValue(category)
	d.SubmissionType = nullStringValue(submissionType)
	if decisionDate.Valid {
		t := decisionDate.Time
		d.DecisionDate = &t
	}

	return d, nil
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullStringValue はNULLを空文字列に変換する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullTimeValue はNULLをnilに変換する。
func nullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}
