package fincal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	savedRows     *prometheus.CounterVec
	failedRows    *prometheus.CounterVec
	crawlErrors   *prometheus.CounterVec
	crawlDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
}

// newRegistry is used when the caller does not hand one in. It carries the runtime collectors as well.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		savedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fincal",
			Subsystem: "crawl",
			Name:      "saved_rows_total",
			Help:      "Calendar rows upserted by the crawler.",
		}, []string{"kind", "country"}),
		failedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fincal",
			Subsystem: "crawl",
			Name:      "failed_rows_total",
			Help:      "Calendar rows the crawler could not save.",
		}, []string{"kind", "country"}),
		crawlErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fincal",
			Subsystem: "crawl",
			Name:      "errors_total",
			Help:      "Calendar pages that could not be fetched or parsed.",
		}, []string{"kind"}),
		crawlDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fincal",
			Subsystem: "crawl",
			Name:      "duration_seconds",
			Help:      "Wall time of one crawl run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"kind"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fincal",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Calendar read cache lookups by result.",
		}, []string{"kind", "result"}),
	}
}
