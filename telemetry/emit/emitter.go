// Package emit reports the execution driver's run and node lifecycle
// ("run_start", "node_start", "node_skip", "node_end", "run_cancelled",
// "run_end") to a pluggable observability backend.
package emit

import "context"

// Emitter receives the lifecycle events Execute produces for one run: a
// run_start/run_end pair bracketing one node_start/node_end pair per node
// actually dispatched, plus node_skip for branch-pruned nodes and
// run_cancelled if WithCancel's channel closes mid-run.
//
// Implementations must not block the driver for long and must not panic;
// Execute calls Emit synchronously between nodes and does not recover from
// an Emitter panic.
type Emitter interface {
	// Emit reports a single lifecycle event.
	Emit(event Event)

	// EmitBatch reports several events at once, in order. Used by emitters
	// that prefer batching (e.g. a remote sink) over per-event dispatch;
	// the driver itself always calls Emit one event at a time.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered. Execute
	// calls Flush once, after emitting run_end, so a batching or
	// asynchronous Emitter doesn't lose the tail of a run.
	Flush(ctx context.Context) error
}
