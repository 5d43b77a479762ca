package lookup

import "github.com/prometheus/client_golang/prometheus"

type cacheMetrics struct {
	lookups *prometheus.CounterVec
}

func newCacheMetrics(registerer prometheus.Registerer) *cacheMetrics {
	if registerer == nil {
		return nil
	}
	m := &cacheMetrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "welfaredesk_lookup_requests_total",
			Help: "Dropdown lookups by entity and the tier that answered.",
		}, []string{"entity", "tier"}),
	}
	registerer.MustRegister(m.lookups)
	return m
}

func (m *cacheMetrics) observe(entity, tier string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(entity, tier).Inc()
}
