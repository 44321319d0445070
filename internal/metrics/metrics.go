// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー・ワーカー・サービス層から利用する。
type MetricsCollector interface {
	RecordSearch(hasQuery bool)
	RecordUnlockSuccess()
	RecordUnlockFailure(reason string)
	RecordGeneration(kind string, duration time.Duration, success bool)
	RecordCourtLink()
	RecordCourtLinkMiss()
	RecordChatMessagesDeleted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	searches          *prometheus.CounterVec
	unlockSuccess     prometheus.Counter
	unlockFail        *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	generationFail    *prometheus.CounterVec
	courtLinks        prometheus.Counter
	courtLinkMisses   prometheus.Counter
	chatDeleted       prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kararman_searches_total",
			Help: "決定一覧検索の合計数",
		}, []string{"has_query"}),
		unlockSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kararman_unlock_success_total",
			Help: "決定解錠成功の合計数",
		}),
		unlockFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kararman_unlock_fail_total",
			Help: "決定解錠失敗の合計数",
		}, []string{"reason"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kararman_generation_latency_seconds",
			Help:    "AI生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		generationFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kararman_generation_fail_total",
			Help: "AI生成失敗の合計数",
		}, []string{"kind"}),
		courtLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kararman_court_links_total",
			Help: "判決と決定の紐付け成功の合計数",
		}),
		courtLinkMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kararman_court_link_misses_total",
			Help: "決定番号を抽出できなかった判決の合計数",
		}),
		chatDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kararman_chat_messages_deleted_total",
			Help: "保持期限切れで削除された対話メッセージの合計数",
		}),
	}

	reg.MustRegister(
		c.searches,
		c.unlockSuccess,
		c.unlockFail,
		c.generationLatency,
		c.generationFail,
		c.courtLinks,
		c.courtLinkMisses,
		c.chatDeleted,
	)

	return c
}

// RecordSearch は決定一覧検索を記録する。
func (c *Collector) RecordSearch(hasQuery bool) {
	label := "false"
	if hasQuery {
		label = "true"
	}
	c.searches.WithLabelValues(label).Inc()
}

// RecordUnlockSuccess は解錠成功を記録する。
func (c *Collector) RecordUnlockSuccess() {
	c.unlockSuccess.Inc()
}

// RecordUnlockFailure は解錠失敗を理由付きで記録する。
func (c *Collector) RecordUnlockFailure(reason string) {
	c.unlockFail.WithLabelValues(reason).Inc()
}

// RecordGeneration はAI生成の所要時間と結果を記録する。
// kindは"chat"または"petition"。
func (c *Collector) RecordGeneration(kind string, duration time.Duration, success bool) {
	c.generationLatency.WithLabelValues(kind).Observe(duration.Seconds())
	if !success {
		c.generationFail.WithLabelValues(kind).Inc()
	}
}

// RecordCourtLink は判決の紐付け成功を記録する。
func (c *Collector) RecordCourtLink() {
	c.courtLinks.Inc()
}

// RecordCourtLinkMiss は決定番号を抽出できなかった判決を記録する。
func (c *Collector) RecordCourtLinkMiss() {
	c.courtLinkMisses.Inc()
}

// RecordChatMessagesDeleted は削除された対話メッセージ数を記録する。
func (c *Collector) RecordChatMessagesDeleted(count int) {
	c.chatDeleted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
