package emit

import "context"

// NullEmitter discards every event. It is the driver's default (see
// agentgraph.Option), so a run with no observability configured pays no
// event-handling cost.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit is a no-op.
func (n *NullEmitter) Emit(event Event) {}

// EmitBatch is a no-op.
func (n *NullEmitter) EmitBatch(ctx context.Context, events []Event) error { return nil }

// Flush is a no-op.
func (n *NullEmitter) Flush(ctx context.Context) error { return nil }
