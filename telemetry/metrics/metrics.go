// Package metrics provides Prometheus-compatible instrumentation for
// workflow execution.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the execution-driver metrics: per-node duration, run
// outcome counts, token/cost accounting, and how many nodes a run's branch
// pruning skipped.
//
// Metrics are namespaced "agentgraph_". All methods are safe to call
// concurrently, though the sequential execution driver calls them from a
// single goroutine.
type Recorder struct {
	nodeDuration  *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
	nodesSkipped  *prometheus.CounterVec
	tokensTotal   *prometheus.CounterVec
	costTotalUSD  *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// New creates and registers all workflow execution metrics with registry.
// A nil registry uses prometheus.DefaultRegisterer.
func New(registry prometheus.Registerer) *Recorder {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	r := &Recorder{enabled: true}

	r.nodeDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentgraph",
		Name:      "node_duration_ms",
		Help:      "Node execution duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	}, []string{"run_id", "node_id", "agent_kind", "status"})

	r.runsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentgraph",
		Name:      "runs_total",
		Help:      "Completed workflow runs by terminal status",
	}, []string{"status"})

	r.nodesSkipped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentgraph",
		Name:      "nodes_skipped_total",
		Help:      "Nodes skipped by branch pruning after a conditional node",
	}, []string{"run_id"})

	r.tokensTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentgraph",
		Name:      "llm_tokens_total",
		Help:      "Tokens consumed by LLM agent calls",
	}, []string{"run_id", "model"})

	r.costTotalUSD = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentgraph",
		Name:      "llm_cost_usd_total",
		Help:      "Dollar cost accrued by LLM agent calls",
	}, []string{"run_id", "model"})

	return r
}

// RecordNodeDuration observes a node's execution latency.
func (r *Recorder) RecordNodeDuration(runID, nodeID, agentKind, status string, latency time.Duration) {
	if !r.isEnabled() {
		return
	}
	r.nodeDuration.WithLabelValues(runID, nodeID, agentKind, status).Observe(float64(latency.Milliseconds()))
}

// RecordRunStatus increments the terminal-status counter for a finished run.
func (r *Recorder) RecordRunStatus(status string) {
	if !r.isEnabled() {
		return
	}
	r.runsTotal.WithLabelValues(status).Inc()
}

// RecordNodesSkipped adds count to the branch-pruning skip counter for runID.
func (r *Recorder) RecordNodesSkipped(runID string, count int) {
	if !r.isEnabled() || count <= 0 {
		return
	}
	r.nodesSkipped.WithLabelValues(runID).Add(float64(count))
}

// RecordLLMUsage records the tokens and dollar cost of a single LLM call.
func (r *Recorder) RecordLLMUsage(runID, model string, tokens int, costUSD float64) {
	if !r.isEnabled() {
		return
	}
	r.tokensTotal.WithLabelValues(runID, model).Add(float64(tokens))
	r.costTotalUSD.WithLabelValues(runID, model).Add(costUSD)
}

// Disable stops recording without unregistering the underlying collectors.
func (r *Recorder) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// Enable resumes recording after Disable.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
}

func (r *Recorder) isEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}
