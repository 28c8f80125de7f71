// Package metrics exports dashboard health to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rustyeddy/tradedash/feed"
)

var (
	once sync.Once

	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedash_fetch_total",
			Help: "Requests made to the data source",
		},
		[]string{"dataset", "result"}, // result: ok, http, network, decode, remote, field_missing, error
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradedash_fetch_duration_seconds",
			Help:    "Data source request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"dataset"},
	)

	connected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradedash_connected",
			Help: "Whether the last live stats fetch succeeded (0=disconnected, 1=connected)",
		},
	)

	ticksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tradedash_ticks_total",
			Help: "Refresh ticks run",
		},
	)

	viewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradedash_viewers",
			Help: "Connected dashboard pages that are visible",
		},
	)
)

// Recorder writes to the process-wide collectors.
type Recorder struct{}

var global *Recorder

// Get returns the shared Recorder.
func Get() *Recorder {
	once.Do(func() {
		global = &Recorder{}
	})
	return global
}

// ObserveFetch has the signature of feed.Observer.
func (r *Recorder) ObserveFetch(dataset string, took time.Duration, err error) {
	fetchTotal.WithLabelValues(dataset, feed.Kind(err)).Inc()
	fetchDuration.WithLabelValues(dataset).Observe(took.Seconds())
}

func (r *Recorder) Tick() {
	ticksTotal.Inc()
}

func (r *Recorder) Connected(ok bool) {
	value := 0.0
	if ok {
		value = 1.0
	}
	connected.Set(value)
}

// SetViewers records how many pages are currently visible.
func (r *Recorder) SetViewers(n int) {
	viewers.Set(float64(n))
}
