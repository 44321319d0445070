// Package cleanup はアシスタント対話履歴の自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超過した対話メッセージを日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/kararman/internal/metrics"
	"github.com/hitoshi/kararman/internal/repository"
)

// CleanupJob は保持期間を超過した対話履歴の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	chatRepo  repository.ChatRepository
	collector metrics.MetricsCollector
	logger    *slog.Logger

	// Retention は対話メッセージの保持期間（デフォルト: 90日）。
	Retention time.Duration
	// Interval はジョブの実行間隔（デフォルト: 24時間）。
	Interval time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(chatRepo repository.ChatRepository, collector metrics.MetricsCollector, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		chatRepo:  chatRepo,
		collector: collector,
		logger:    logger,
		Retention: 90 * 24 * time.Hour,
		Interval:  24 * time.Hour,
	}
}

// Start はクリーンアップジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	j.logger.Info("対話履歴クリーンアップジョブを開始しました",
		slog.Duration("interval", j.Interval),
		slog.Duration("retention", j.Retention),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("対話履歴クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("対話履歴クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("対話履歴クリーンアップの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Run は保持期間を超過した対話メッセージを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := start.Add(-j.Retention)

	deletedCount, err := j.chatRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("対話履歴クリーンアップの実行に失敗: %w", err)
	}

	j.collector.RecordChatMessagesDeleted(int(deletedCount))

	duration := time.Since(start)
	j.logger.Info("対話履歴クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
