package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector defines the interface for collecting launcher metrics
type Collector interface {
	// ProfileRejected records a profile that failed validation
	ProfileRejected(reason string)

	// InstanceSpawned records a worker process that started
	InstanceSpawned(profile string)

	// SpawnFailed records a worker process that could not be created
	SpawnFailed(profile string)

	// InstanceExited records a worker process exit
	InstanceExited(profile string, err error)

	// StateTransition records a supervisor state change
	StateTransition(from, to string)
}

type noopCollector struct{}

func (noopCollector) ProfileRejected(reason string)            {}
func (noopCollector) InstanceSpawned(profile string)           {}
func (noopCollector) SpawnFailed(profile string)               {}
func (noopCollector) InstanceExited(profile string, err error) {}
func (noopCollector) StateTransition(from, to string)          {}

// NewNoopCollector creates a no-op metrics collector
func NewNoopCollector() Collector {
	return noopCollector{}
}

// PrometheusCollector implements Collector using Prometheus metrics
type PrometheusCollector struct {
	rejected      *prometheus.CounterVec
	spawned       prometheus.Counter
	spawnFailures prometheus.Counter
	running       prometheus.Gauge
	exits         *prometheus.CounterVec
	transitions   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewPrometheusCollector creates a collector registered on its own registry
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "camoufox"
	}

	pc := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
	}

	pc.rejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_rejected_total",
			Help:      "Total number of cookie profiles rejected by validation",
		},
		[]string{"reason"},
	)

	pc.spawned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "instances_spawned_total",
		Help:      "Total number of worker processes started",
	})

	pc.spawnFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "spawn_failures_total",
		Help:      "Total number of worker processes that failed to start",
	})

	pc.running = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "instances_running",
		Help:      "Number of worker processes that have not exited yet",
	})

	pc.exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_exits_total",
			Help:      "Total number of worker process exits",
		},
		[]string{"outcome"},
	)

	pc.transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supervisor_state_transitions_total",
			Help:      "Total number of supervisor state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	pc.registry.MustRegister(
		pc.rejected,
		pc.spawned,
		pc.spawnFailures,
		pc.running,
		pc.exits,
		pc.transitions,
	)

	return pc
}

func (pc *PrometheusCollector) ProfileRejected(reason string) {
	pc.rejected.WithLabelValues(reason).Inc()
}

func (pc *PrometheusCollector) InstanceSpawned(profile string) {
	pc.spawned.Inc()
	pc.running.Inc()
}

func (pc *PrometheusCollector) SpawnFailed(profile string) {
	pc.spawnFailures.Inc()
}

func (pc *PrometheusCollector) InstanceExited(profile string, err error) {
	pc.running.Dec()
	outcome := "clean"
	if err != nil {
		outcome = "error"
	}
	pc.exits.WithLabelValues(outcome).Inc()
}

func (pc *PrometheusCollector) StateTransition(from, to string) {
	pc.transitions.WithLabelValues(from, to).Inc()
}

// Registry returns the registry the collector metrics live on
func (pc *PrometheusCollector) Registry() *prometheus.Registry {
	return pc.registry
}

// Handler serves the collector registry in the Prometheus text format
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
}
