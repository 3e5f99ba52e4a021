package animation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics TransformCache 的 Prometheus 计数器与仪表
// nil *CacheMetrics 合法，不记录任何数据。
type CacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	builds        prometheus.Counter
	buildFailures prometheus.Counter
	evictions     prometheus.Counter
	entries       prometheus.Gauge
}

// NewCacheMetrics 创建缓存指标并注册到 reg
// namespace 作为所有指标名的前缀（如 "frameplayer"）
func NewCacheMetrics(reg prometheus.Registerer, namespace string) (*CacheMetrics, error) {
	m := &CacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform_cache",
			Name:      "hits_total",
			Help:      "Total number of lookups served from the cache",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform_cache",
			Name:      "misses_total",
			Help:      "Total number of lookups that did not find an entry",
		}),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform_cache",
			Name:      "builds_total",
			Help:      "Total number of builder invocations",
		}),
		buildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform_cache",
			Name:      "build_failures_total",
			Help:      "Total number of builder invocations that returned an error",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform_cache",
			Name:      "evictions_total",
			Help:      "Total number of entries evicted by the LRU policy",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transform_cache",
			Name:      "entries",
			Help:      "Number of transformed images currently cached",
		}),
	}

	for _, c := range []prometheus.Collector{m.hits, m.misses, m.builds, m.buildFailures, m.evictions, m.entries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *CacheMetrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *CacheMetrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *CacheMetrics) build(failed bool) {
	if m == nil {
		return
	}
	m.builds.Inc()
	if failed {
		m.buildFailures.Inc()
	}
}

func (m *CacheMetrics) evict(n int) {
	if m != nil && n > 0 {
		m.evictions.Add(float64(n))
	}
}

func (m *CacheMetrics) size(n int) {
	if m != nil {
		m.entries.Set(float64(n))
	}
}
