package metrics

import (
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var promNameRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// PromName sanitizes a dotted counter name into Prometheus exposition
// format, e.g. "pos.sync.runs" becomes "pos_sync_runs"
func PromName(name string) string {
	return promNameRe.ReplaceAllString(name, "_")
}

// Collector adapts a Registry to the prometheus.Collector interface
type Collector struct {
	registry *Registry
}

// NewCollector creates a collector over the given registry
func NewCollector(r *Registry) *Collector {
	return &Collector{registry: r}
}

// Describe implements prometheus.Collector. The counter set is dynamic,
// so descriptors are produced on Collect only.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.registry.Snapshot()
	for name, value := range snap.Counters {
		desc := prometheus.NewDesc(PromName(name), "", nil, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.CounterValue, float64(value))
		if err != nil {
			continue
		}
		ch <- m
	}
}

// Handler returns an http.Handler serving the registry's counters in
// Prometheus exposition format
func Handler(r *Registry) http.Handler {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(NewCollector(r))
	return promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
}
