package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/kararman/internal/model"
)

// PostgresCourtCaseRepo はPostgreSQLを使用した裁判所判決リポジトリ。
type PostgresCourtCaseRepo struct {
	db *sql.DB
}

// NewPostgresCourtCaseRepo はPostgresCourtCaseRepoを生成する。
func NewPostgresCourtCaseRepo(db *sql.DB) *PostgresCourtCaseRepo {
	return &PostgresCourtCaseRepo{db: db}
}

// ListUnlinked は紐付け処理が未実施の判決を古い順に取得する。
// linked_atの有無を処理済みマーカーとして使う。決定番号が抽出できず
// 空のまま処理済みになった判決は再処理の対象にならない。
// courtlinkワーカーがFOR UPDATE SKIP LOCKEDで排他的に処理する。
func (r *PostgresCourtCaseRepo) ListUnlinked(ctx context.Context, limit int) ([]*model.CourtCase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_no, decision_case_no, body, meeting_no, agenda_no,
		        decision_date, linked_at, created_at
		 FROM court_cases
		 WHERE linked_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("未紐付け判決の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanCourtCases(rows)
}

// Link は判決に抽出済み決定番号を設定しlinked_atを記録する。
func (r *PostgresCourtCaseRepo) Link(ctx context.Context, id, decisionCaseNo string, linkedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE court_cases SET decision_case_no = $2, linked_at = $3
		 WHERE id = $1`,
		id, decisionCaseNo, linkedAt,
	)
	if err != nil {
		return fmt.Errorf("判決の紐付けに失敗しました: %w", err)
	}
	return nil
}

// ListByDecisionCaseNo は指定決定番号に紐付く判決を返す。
func (r *PostgresCourtCaseRepo) ListByDecisionCaseNo(ctx context.Context, caseNo string) ([]*model.CourtCase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_no, decision_case_no, body, meeting_no, agenda_no,
		        decision_date, linked_at, created_at
		 FROM court_cases
		 WHERE decision_case_no = $1
		 ORDER BY created_at DESC`,
		caseNo,
	)
	if err != nil {
		return nil, fmt.Errorf("紐付き判決の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanCourtCases(rows)
}

// scanCourtCases は判決の結果セットを走査する。
func scanCourtCases(rows *sql.Rows) ([]*model.CourtCase, error) {
	var cases []*model.CourtCase
	for rows.Next() {
		c := &model.CourtCase{}
		var decisionCaseNo, meetingNo, agendaNo sql.NullString
		var decisionDate, linkedAt sql.NullTime

		err := rows.Scan(
			&c.ID, &c.CaseNo, &decisionCaseNo, &c.Body, &meetingNo, &agendaNo,
			&decisionDate, &linkedAt, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("判決行の読み取りに失敗しました: %w", err)
		}

		c.DecisionCaseNo = nullStringValue(decisionCaseNo)
		c.MeetingNo = nullStringValue(meetingNo)
		c.AgendaNo = nullStringValue(agendaNo)
		c.DecisionDate = nullTimeValue(decisionDate)
		c.LinkedAt = nullTimeValue(linkedAt)

		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("判決一覧の走査に失敗しました: %w", err)
	}

	return cases, nil
}
