package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartCacheMetrics counts how cart reads are served.
type CartCacheMetrics struct {
	hits       prometheus.Counter
	misses     prometheus.Counter
	staleDrops prometheus.Counter
}

func NewCartCacheMetrics(reg prometheus.Registerer) *CartCacheMetrics {
	if reg == nil {
		return &CartCacheMetrics{}
	}
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "cache_hits_total",
		Help:      "Cart reads served from the debounce window.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "cache_misses_total",
		Help:      "Cart reads that went to the server.",
	})
	staleDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "stale_responses_dropped_total",
		Help:      "Cart responses discarded because a newer one was already applied.",
	})
	reg.MustRegister(hits, misses, staleDrops)
	return &CartCacheMetrics{hits: hits, misses: misses, staleDrops: staleDrops}
}

func (c *CartCacheMetrics) IncHit() {
	if c == nil || c.hits == nil {
		return
	}
	c.hits.Inc()
}

func (c *CartCacheMetrics) IncMiss() {
	if c == nil || c.misses == nil {
		return
	}
	c.misses.Inc()
}

func (c *CartCacheMetrics) IncStaleDrop() {
	if c == nil || c.staleDrops == nil {
		return
	}
	c.staleDrops.Inc()
}
