package emit

// Event is one point in a run's lifecycle, as reported by the execution
// driver: "run_start", "node_start", "node_skip", "node_end",
// "run_cancelled", or "run_end".
type Event struct {
	// RunID identifies the Execute call that emitted this event.
	RunID string

	// Step is the node's position in the run's topological order
	// (0-indexed). Zero for run-level events (run_start, run_end).
	Step int

	// NodeID is the node this event concerns. Empty for run-level events.
	NodeID string

	// Msg names the lifecycle point this event marks.
	Msg string

	// Meta carries event-specific data. node_end sets "status" to the
	// node's terminal NodeStatus; run_end sets "status" to the run's
	// terminal RunStatus.
	Meta map[string]interface{}
}
