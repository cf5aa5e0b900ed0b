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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(duration time.Duration)
	RecordTokenRefresh()
	RecordTokenCacheHit()
	RecordTokenCacheMiss()
	RecordFavoriteToggle(added bool)
	RecordLoginFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamStatus  *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	tokenRefresh    prometheus.Counter
	tokenCacheHit   prometheus.Counter
	tokenCacheMiss  prometheus.Counter
	favoriteToggle  *prometheus.CounterVec
	loginFail       prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artshelf_upstream_status_total",
			Help: "カタログAPIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "artshelf_upstream_latency_seconds",
			Help:    "カタログAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tokenRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "artshelf_token_refresh_total",
			Help: "サービストークン再発行の合計数",
		}),
		tokenCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "artshelf_token_cache_hit_total",
			Help: "サービストークンキャッシュヒットの合計数",
		}),
		tokenCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "artshelf_token_cache_miss_total",
			Help: "サービストークンキャッシュミス（未保存・期限切れ）の合計数",
		}),
		favoriteToggle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artshelf_favorite_toggle_total",
			Help: "お気に入りトグルの結果別合計数",
		}, []string{"result"}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "artshelf_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.upstreamStatus,
		c.upstreamLatency,
		c.tokenRefresh,
		c.tokenCacheHit,
		c.tokenCacheMiss,
		c.favoriteToggle,
		c.loginFail,
	)

	return c
}

// RecordUpstreamStatus はカタログAPIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency はカタログAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordTokenRefresh はサービストークンの再発行を記録する。
func (c *Collector) RecordTokenRefresh() {
	c.tokenRefresh.Inc()
}

// RecordTokenCacheHit はトークンキャッシュヒットを記録する。
func (c *Collector) RecordTokenCacheHit() {
	c.tokenCacheHit.Inc()
}

// RecordTokenCacheMiss はトークンキャッシュミスを記録する。
func (c *Collector) RecordTokenCacheMiss() {
	c.tokenCacheMiss.Inc()
}

// RecordFavoriteToggle はお気に入りトグルの結果を記録する。
func (c *Collector) RecordFavoriteToggle(added bool) {
	result := "removed"
	if added {
		result = "added"
	}
	c.favoriteToggle.WithLabelValues(result).Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
