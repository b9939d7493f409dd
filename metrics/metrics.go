// Package metrics is the runtime's ambient observability surface: a small
// bundle of Prometheus counters tracking scheduler activity. It is purely
// additive instrumentation, not part of the scheduling algorithm — every
// recording call is a no-op on a nil *Metrics, so callers that never wire
// one in pay nothing beyond a pointer check.
//
// Grounded on the teacher's retrieval-pack sibling inngest-inngest, whose
// pkg/metrics package registers a private prometheus.Registry rather than
// using the global default one, so that multiple schedulers in the same
// process (as tests spin up routinely) don't collide on metric names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics bundles the counters/gauges the scheduler records into. The zero
// value is not usable; construct with New.
type Metrics struct {
	registry *prometheus.Registry

	TasksExecuted    prometheus.Counter
	Steals           prometheus.Counter
	Wakes            prometheus.Counter
	QuiescenceCycles prometheus.Counter
	NodesSynthesized prometheus.Counter
}

// New returns a Metrics bundle registered against a fresh, private
// registry — never the global default one, so multiple schedulers (one
// per test, typically) never collide registering the same metric name
// twice.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		TasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forkjoin_tasks_executed_total",
			Help: "Number of task continuations resumed across all workers.",
		}),
		Steals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forkjoin_steals_total",
			Help: "Number of successful cross-worker deque steals.",
		}),
		Wakes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forkjoin_wakes_total",
			Help: "Number of sleep-generation bumps issued by the wake protocol.",
		}),
		QuiescenceCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forkjoin_quiescence_cycles_total",
			Help: "Number of times a worker parked after finding every deque empty.",
		}),
		NodesSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forkjoin_trie_nodes_synthesized_total",
			Help: "Number of parallel trie construction and merge steps that built a new result node; each step counts once.",
		}),
	}
	reg.MustRegister(m.TasksExecuted, m.Steals, m.Wakes, m.QuiescenceCycles, m.NodesSynthesized)
	return m
}

// Gather returns the current metric families from m's private registry, for
// tests and debug dumps that want to inspect counter values without
// spinning up an HTTP handler.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

// Snapshot is a point-in-time, JSON-friendly view of the counters, used by
// package diag.
type Snapshot struct {
	TasksExecuted    float64 `json:"tasks_executed"`
	Steals           float64 `json:"steals"`
	Wakes            float64 `json:"wakes"`
	QuiescenceCycles float64 `json:"quiescence_cycles"`
	NodesSynthesized float64 `json:"nodes_synthesized"`
}

// Snapshot reads every counter's current value. Counters have no direct
// "current value" accessor in client_golang, so this goes through the
// standard prometheus.Metric -> dto.Metric write path.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TasksExecuted:    readCounter(m.TasksExecuted),
		Steals:           readCounter(m.Steals),
		Wakes:            readCounter(m.Wakes),
		QuiescenceCycles: readCounter(m.QuiescenceCycles),
		NodesSynthesized: readCounter(m.NodesSynthesized),
	}
}

func readCounter(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
