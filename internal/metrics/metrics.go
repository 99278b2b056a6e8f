// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は上流API呼び出しとページ描画のメトリクスを収集する。
type Collector struct {
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	pageRenders     *prometheus.CounterVec
	renderFailures  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopman_upstream_calls_total",
			Help: "上流API呼び出しのリソース・メソッド・ステータス別合計数",
		}, []string{"resource", "method", "status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopman_upstream_latency_seconds",
			Help:    "上流API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		pageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopman_page_renders_total",
			Help: "ページ描画のテンプレート別合計数",
		}, []string{"template"}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopman_render_failures_total",
			Help: "テンプレート描画失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.upstreamCalls,
		c.upstreamLatency,
		c.pageRenders,
		c.renderFailures,
	)

	return c
}

// RecordUpstreamCall は上流API呼び出しを記録する。
// ネットワーク断などでHTTP応答がない場合はstatusCode=0で記録する。
func (c *Collector) RecordUpstreamCall(resource, method string, statusCode int, duration time.Duration) {
	c.upstreamCalls.WithLabelValues(resource, method, strconv.Itoa(statusCode)).Inc()
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordPageRender はページ描画を記録する。
func (c *Collector) RecordPageRender(template string) {
	c.pageRenders.WithLabelValues(template).Inc()
}

// RecordRenderFailure はテンプレート描画失敗を記録する。
func (c *Collector) RecordRenderFailure() {
	c.renderFailures.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
