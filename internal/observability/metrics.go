package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	SynthesisRequests *prometheus.CounterVec
	SynthesisLatency  prometheus.Histogram
	ActiveStreams     prometheus.Gauge
	ModelLoads        *prometheus.CounterVec
	ModelState        prometheus.Gauge
	EngineErrors      prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SynthesisRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Synthesis requests by response format and outcome.",
		}, []string{"format", "outcome"}),
		SynthesisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_latency_ms",
			Help:      "End-to-end synthesis latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		ActiveStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of in-flight streaming synthesis responses.",
		}),
		ModelLoads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Model construction attempts by outcome.",
		}, []string{"outcome"}),
		ModelState: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_state",
			Help:      "Loader state: 0 idle, 1 loading, 2 ready, 3 failed, 4 closed.",
		}),
		EngineErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_synth_errors_total",
			Help:      "Inference failures on a healthy engine.",
		}),
	}
}

func (m *Metrics) ObserveSynthesisLatency(d time.Duration) {
	m.SynthesisLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
