// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// セッション表示の結果ラベル。
const (
	ResultOK       = "ok"
	ResultFallback = "fallback"
)

// OutcomeNetworkError はレスポンスを受け取れなかったリクエストの結果ラベル。
const OutcomeNetworkError = "network_error"

// MetricsCollector はメトリクス収集のインターフェース。
// バックエンドクライアントやハンドラー層から利用する。
type MetricsCollector interface {
	RecordUpstreamRequest(resource string, outcome string)
	RecordUpstreamLatency(resource string, duration time.Duration)
	RecordSessionView(result string)
	RecordParticipants(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	sessionViews     *prometheus.CounterVec
	participants     prometheus.Histogram
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionview_upstream_requests_total",
			Help: "バックエンドAPIへのリクエスト数（リソース・結果別）",
		}, []string{"resource", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sessionview_upstream_latency_seconds",
			Help:    "バックエンドAPIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
		sessionViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionview_session_views_total",
			Help: "セッション表示の結果別の件数",
		}, []string{"result"}),
		participants: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sessionview_participants",
			Help:    "1セッションあたりの参加者数",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionview_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.sessionViews,
		c.participants,
		c.httpStatus,
	)

	return c
}

// RecordUpstreamRequest はバックエンドへのリクエスト結果を記録する。
// outcomeはHTTPステータスコードの文字列かOutcomeNetworkError。
func (c *Collector) RecordUpstreamRequest(resource string, outcome string) {
	c.upstreamRequests.WithLabelValues(resource, outcome).Inc()
}

// RecordUpstreamLatency はバックエンドリクエストのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(resource string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordSessionView はセッション表示の結果を記録する。
func (c *Collector) RecordSessionView(result string) {
	c.sessionViews.WithLabelValues(result).Inc()
}

// RecordParticipants は集計された参加者数を記録する。
func (c *Collector) RecordParticipants(count int) {
	c.participants.Observe(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
