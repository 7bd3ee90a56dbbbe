// Package metrics provides fabric.FrameObserver implementations that export
// per-tick executor statistics to Prometheus and OpenTelemetry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phanxgames/fabric"
)

// Prometheus records frame statistics as Prometheus counters, gauges and a
// frame duration histogram.
type Prometheus struct {
	frames       prometheus.Counter
	executions   prometheus.Counter
	cached       prometheus.Counter
	faults       prometheus.Counter
	feedback     prometheus.Counter
	drawFailures prometheus.Counter
	objects      prometheus.Gauge
	cameras      prometheus.Gauge
	duration     *prometheus.HistogramVec
}

// NewPrometheus registers the fabric collectors on reg under namespace.
// It panics if the collectors are already registered.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_total",
			Help: "Total number of executed ticks.",
		}),
		executions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "node_executions_total",
			Help: "Total number of node Execute calls.",
		}),
		cached: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "node_cache_hits_total",
			Help: "Total number of visited nodes skipped because they were clean.",
		}),
		faults: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "node_faults_total",
			Help: "Total number of node executions that returned an error or panicked.",
		}),
		feedback: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "feedback_edges_total",
			Help: "Total number of dependencies read with their previous tick's value.",
		}),
		drawFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "draw_failures_total",
			Help: "Total number of ticks whose renderer draw failed.",
		}),
		objects: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "scene_objects",
			Help: "Number of scene objects aggregated in the last tick.",
		}),
		cameras: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cameras",
			Help: "Number of cameras aggregated in the last tick.",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "frame_phase_duration_seconds",
			Help:    "Time spent per tick phase.",
			Buckets: []float64{.0001, .0005, .001, .002, .004, .008, .016, .033, .066},
		}, []string{"phase"}),
	}
}

func (p *Prometheus) ObserveFrame(s fabric.FrameStats) {
	p.frames.Inc()
	p.executions.Add(float64(s.Executed))
	p.cached.Add(float64(s.Cached))
	p.faults.Add(float64(s.Faults))
	p.feedback.Add(float64(s.Feedback))
	if s.DrawFailed {
		p.drawFailures.Inc()
	}
	p.objects.Set(float64(s.Objects))
	p.cameras.Set(float64(s.Cameras))
	p.duration.WithLabelValues("traverse").Observe(s.Traverse.Seconds())
	p.duration.WithLabelValues("aggregate").Observe(s.Aggregate.Seconds())
	p.duration.WithLabelValues("draw").Observe(s.Draw.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Multi fans frame statistics out to several observers.
type Multi []fabric.FrameObserver

func (m Multi) ObserveFrame(s fabric.FrameStats) {
	for _, o := range m {
		if o != nil {
			o.ObserveFrame(s)
		}
	}
}
