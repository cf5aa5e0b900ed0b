package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordUpstreamStatus_IncrementsCounterWithLabel はステータスカウンタがラベル付きで増加することを検証する。
func TestRecordUpstreamStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(404)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "artshelf_upstream_status_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "200":
					if val != 2 {
						t.Errorf("upstream_status_total{status_code=200} = %v, want 2", val)
					}
				case "404":
					if val != 1 {
						t.Errorf("upstream_status_total{status_code=404} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("artshelf_upstream_status_total metric not found")
	}
}

// TestRecordUpstreamLatency_ObservesHistogram はレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordUpstreamLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamLatency(100 * time.Millisecond)
	c.RecordUpstreamLatency(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "artshelf_upstream_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("artshelf_upstream_latency_seconds metric not found")
	}
}

// TestRecordTokenCacheCounters_Increment はトークンキャッシュ関連カウンタが増加することを検証する。
func TestRecordTokenCacheCounters_Increment(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenCacheHit()
	c.RecordTokenCacheHit()
	c.RecordTokenCacheMiss()
	c.RecordTokenRefresh()

	if val := counterValue(t, reg, "artshelf_token_cache_hit_total"); val != 2 {
		t.Errorf("token_cache_hit_total = %v, want 2", val)
	}
	if val := counterValue(t, reg, "artshelf_token_cache_miss_total"); val != 1 {
		t.Errorf("token_cache_miss_total = %v, want 1", val)
	}
	if val := counterValue(t, reg, "artshelf_token_refresh_total"); val != 1 {
		t.Errorf("token_refresh_total = %v, want 1", val)
	}
}

// TestRecordFavoriteToggle_LabelsByResult はトグル結果がadded/removedラベルで記録されることを検証する。
func TestRecordFavoriteToggle_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFavoriteToggle(true)
	c.RecordFavoriteToggle(true)
	c.RecordFavoriteToggle(false)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "artshelf_favorite_toggle_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			label := m.GetLabel()[0].GetValue()
			val := m.GetCounter().GetValue()
			switch label {
			case "added":
				if val != 2 {
					t.Errorf("favorite_toggle_total{result=added} = %v, want 2", val)
				}
			case "removed":
				if val != 1 {
					t.Errorf("favorite_toggle_total{result=removed} = %v, want 1", val)
				}
			default:
				t.Errorf("unexpected label value: %s", label)
			}
		}
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamStatus(200)
	c.RecordTokenRefresh()
	c.RecordFavoriteToggle(true)
	c.RecordLoginFailure()
	c.RecordUpstreamLatency(500 * time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"artshelf_upstream_status_total",
		"artshelf_upstream_latency_seconds",
		"artshelf_token_refresh_total",
		"artshelf_favorite_toggle_total",
		"artshelf_login_fail_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}
