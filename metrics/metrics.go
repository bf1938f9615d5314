// Package metrics exposes the Prometheus instrumentation surface for
// streamcore's cooperative pipeline: tick latency, in-flight content
// requests, and queue depths. All registration happens against the
// default registry, mirroring the teacher's stats package convention of
// process-wide metrics rather than per-instance registries.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TickDuration observes how long one processing-graph tick took
	// (spec §4.I's cumulative tick budget).
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "streamcore",
		Subsystem: "graph",
		Name:      "tick_duration_seconds",
		Help:      "Duration of one processing-graph scheduler tick.",
		Buckets:   prometheus.DefBuckets,
	})

	// LoadingGauge tracks the node-content manager's in-flight load count
	// (spec §4.E/§4.H concurrency budget).
	LoadingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamcore",
		Subsystem: "contentmgr",
		Name:      "loading_in_flight",
		Help:      "Number of FinishLoading entries currently awaited.",
	})

	// UnloadingGauge tracks in-flight unload operations.
	UnloadingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamcore",
		Subsystem: "contentmgr",
		Name:      "unloading_in_flight",
		Help:      "Number of Unload entries currently queued or running.",
	})

	// SchedulerQueueLength tracks the expansion scheduler's pending work.
	SchedulerQueueLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "streamcore",
		Subsystem: "scheduler",
		Name:      "queue_length",
		Help:      "Pending items in the scheduler's load/unload priority queues.",
	}, []string{"queue"})

	// CommandBufferLength tracks the command buffer's undrained length.
	CommandBufferLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamcore",
		Subsystem: "commandbuf",
		Name:      "buffer_length",
		Help:      "Number of undrained commands in the command buffer.",
	})
)

func init() {
	prometheus.MustRegister(TickDuration, LoadingGauge, UnloadingGauge, SchedulerQueueLength, CommandBufferLength)
}
