// Package courtlink は裁判所判決とKİK決定の自動紐付けジョブを提供する。
// 未紐付けの判決本文から決定番号を抽出し、該当する決定が存在すれば
// 判決に決定番号を記録して決定側のhas_court_caseフラグを立てる。
package courtlink

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/kararman/internal/metrics"
	"github.com/hitoshi/kararman/internal/model"
	"github.com/hitoshi/kararman/internal/repository"
)

// caseNoPattern はKİK決定番号の形式。"2024/UY1234" のように
// 年・タイプコード・連番で構成される。
var caseNoPattern = regexp.MustCompile(`\b\d{4}/(?:UY|M|H|D)\d+\b`)

// BatchConfig はバッチジョブの設定パラメータ。環境変数から設定可能。
type BatchConfig struct {
	// BatchInterval はバッチジョブの実行間隔（デフォルト: 10分）。
	BatchInterval time.Duration
	// ItemInterval は判決1件あたりの処理間隔（デフォルト: 100ミリ秒）。
	ItemInterval time.Duration
	// BatchSize は1回のクエリで取得する未紐付け判決数（デフォルト: 50）。
	BatchSize int
	// MaxPerCycle は1サイクルあたりの最大処理件数（デフォルト: 200）。
	MaxPerCycle int
}

// DefaultBatchConfig はデフォルトのバッチジョブ設定を返す。
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		BatchInterval: 10 * time.Minute,
		ItemInterval:  100 * time.Millisecond,
		BatchSize:     50,
		MaxPerCycle:   200,
	}
}

// BatchJob は判決・決定紐付けのバッチジョブ。
type BatchJob struct {
	courtCaseRepo repository.CourtCaseRepository
	decisionRepo  repository.DecisionRepository
	collector     metrics.MetricsCollector
	logger        *slog.Logger
	config        BatchConfig

	// 連続エラー時のバックオフ状態
	consecutiveErrors int
	backoffUntil      time.Time
}

// NewBatchJob はBatchJobの新しいインスタンスを生成する。
func NewBatchJob(
	courtCaseRepo repository.CourtCaseRepository,
	decisionRepo repository.DecisionRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config BatchConfig,
) *BatchJob {
	return &BatchJob{
		courtCaseRepo: courtCaseRepo,
		decisionRepo:  decisionRepo,
		collector:     collector,
		logger:        logger,
		config:        config,
	}
}

// Start はバッチジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (b *BatchJob) Start(ctx context.Context) {
	ticker := time.NewTicker(b.config.BatchInterval)
	defer ticker.Stop()

	b.logger.Info("判決紐付けバッチジョブを開始しました",
		slog.Duration("batch_interval", b.config.BatchInterval),
		slog.Int("batch_size", b.config.BatchSize),
		slog.Int("max_per_cycle", b.config.MaxPerCycle),
	)

	// 起動直後に1回実行
	if err := b.RunOnce(ctx); err != nil {
		b.logger.Error("判決紐付けバッチサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("判決紐付けバッチジョブを停止しました")
			return
		case <-ticker.C:
			if err := b.RunOnce(ctx); err != nil {
				b.logger.Error("判決紐付けバッチサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回のバッチサイクルを実行する。
// 未紐付けの判決をBatchSize単位で取得し、MaxPerCycleに達するまで処理する。
func (b *BatchJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	// バックオフ中の場合はスキップ
	if !b.backoffUntil.IsZero() && time.Now().Before(b.backoffUntil) {
		b.logger.Info("判決紐付けバッチジョブはバックオフ中のためスキップします",
			slog.Time("backoff_until", b.backoffUntil),
		)
		return nil
	}

	var processed, linked, missed int

	for processed < b.config.MaxPerCycle {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		limit := b.config.BatchSize
		if remaining := b.config.MaxPerCycle - processed; remaining < limit {
			limit = remaining
		}

		cases, err := b.courtCaseRepo.ListUnlinked(ctx, limit)
		if err != nil {
			b.consecutiveErrors++
			if backoff := calculateErrorBackoff(b.consecutiveErrors); backoff > 0 {
				b.backoffUntil = time.Now().Add(backoff)
				b.logger.Warn("連続エラーによりバックオフを適用します",
					slog.Int("consecutive_errors", b.consecutiveErrors),
					slog.Duration("backoff_duration", backoff),
				)
			}
			return fmt.Errorf("未紐付け判決の取得に失敗しました: %w", err)
		}
		if len(cases) == 0 {
			break
		}

		for _, cc := range cases {
			// 判決ごとの処理間隔（初回は待たない）
			if processed > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(b.config.ItemInterval):
				}
			}
			processed++

			if b.processCase(ctx, cc) {
				linked++
			} else {
				missed++
			}
		}

		// 取得件数がlimit未満なら残りはない
		if len(cases) < limit {
			break
		}
	}

	// サイクル成功で連続エラーカウントをリセット
	b.consecutiveErrors = 0
	b.backoffUntil = time.Time{}

	duration := time.Since(start)
	b.logger.Info("判決紐付けバッチサイクルが完了しました",
		slog.Int("processed", processed),
		slog.Int("linked", linked),
		slog.Int("missed", missed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// processCase は判決1件の紐付けを試みる。
// 本文から抽出した決定番号のうち、実在する決定に一致した最初の番号で紐付ける。
// 紐付けに成功した場合trueを返す。一致する決定がない場合は
// 空の決定番号でlinked_atのみ記録し、再処理の対象から外す。
func (b *BatchJob) processCase(ctx context.Context, cc *model.CourtCase) bool {
	now := time.Now()

	for _, caseNo := range ExtractCaseNumbers(cc.Body) {
		affected, err := b.decisionRepo.SetCourtCaseFlag(ctx, caseNo, true)
		if err != nil {
			b.logger.Error("裁判紐付けフラグの更新に失敗しました",
				slog.String("court_case_id", cc.ID),
				slog.String("case_no", caseNo),
				slog.String("error", err.Error()),
			)
			return false
		}
		if affected == 0 {
			// ポータルに未収載の決定番号。次の候補を試す
			continue
		}

		if err := b.courtCaseRepo.Link(ctx, cc.ID, caseNo, now); err != nil {
			b.logger.Error("判決の紐付けに失敗しました",
				slog.String("court_case_id", cc.ID),
				slog.String("case_no", caseNo),
				slog.String("error", err.Error()),
			)
			return false
		}

		b.collector.RecordCourtLink()
		b.logger.Info("判決を決定に紐付けました",
			slog.String("court_case_id", cc.ID),
			slog.String("case_no", caseNo),
			slog.Int64("linked_decisions", affected),
		)
		return true
	}

	// 候補なし、または全候補が未収載
	if err := b.courtCaseRepo.Link(ctx, cc.ID, "", now); err != nil {
		b.logger.Error("判決の処理済み記録に失敗しました",
			slog.String("court_case_id", cc.ID),
			slog.String("error", err.Error()),
		)
		return false
	}

	b.collector.RecordCourtLinkMiss()
	return false
}

// ExtractCaseNumbers は判決本文（HTML）から決定番号の候補を
// 出現順・重複なしで抽出する。HTMLタグはテキスト化してから走査する。
func ExtractCaseNumbers(body string) []string {
	text := body
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		text = doc.Text()
	}

	matches := caseNoPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// calculateErrorBackoff は連続エラー回数に基づくバックオフ時間を計算する。
// 3回連続: 30分、5回連続: 1時間、10回連続: 6時間。
func calculateErrorBackoff(consecutiveErrors int) time.Duration {
	switch {
	case consecutiveErrors >= 10:
		return 6 * time.Hour
	case consecutiveErrors >= 5:
		return 1 * time.Hour
	case consecutiveErrors >= 3:
		return 30 * time.Minute
	default:
		return 0
	}
}
