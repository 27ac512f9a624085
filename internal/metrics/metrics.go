// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	EventCreated()
	EventUpdated()
	EventDeleted()
	EventImported()
	ScheduleDerived(orphanedCards int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	eventsCreated  prometheus.Counter
	eventsUpdated  prometheus.Counter
	eventsDeleted  prometheus.Counter
	eventsImported prometheus.Counter
	scheduleRuns   prometheus.Counter
	orphanedCards  prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripman_events_created_total",
			Help: "作成されたイベントの合計数",
		}),
		eventsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripman_events_updated_total",
			Help: "更新されたイベントの合計数",
		}),
		eventsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripman_events_deleted_total",
			Help: "削除されたイベントの合計数",
		}),
		eventsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripman_events_imported_total",
			Help: "共有リンク経由で参加されたイベントの合計数",
		}),
		scheduleRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripman_schedule_derive_total",
			Help: "スケジュール再導出の実行回数",
		}),
		orphanedCards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripman_orphaned_cards_total",
			Help: "期間変更によりフローティングへ降格されたカードの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripman_request_latency_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.eventsCreated,
		c.eventsUpdated,
		c.eventsDeleted,
		c.eventsImported,
		c.scheduleRuns,
		c.orphanedCards,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// EventCreated はイベント作成を記録する。
func (c *Collector) EventCreated() {
	c.eventsCreated.Inc()
}

// EventUpdated はイベント更新を記録する。
func (c *Collector) EventUpdated() {
	c.eventsUpdated.Inc()
}

// EventDeleted はイベント削除を記録する。
func (c *Collector) EventDeleted() {
	c.eventsDeleted.Inc()
}

// EventImported はイベントのインポートを記録する。
func (c *Collector) EventImported() {
	c.eventsImported.Inc()
}

// ScheduleDerived はスケジュール再導出の実行と降格カード数を記録する。
func (c *Collector) ScheduleDerived(orphanedCards int) {
	c.scheduleRuns.Inc()
	if orphanedCards > 0 {
		c.orphanedCards.Add(float64(orphanedCards))
	}
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
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
