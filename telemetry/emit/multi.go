package emit

import "context"

// MultiEmitter fans out events to every configured Emitter, in order. A
// single backend's failure to flush does not block the others.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter returns a MultiEmitter that dispatches to each of emitters
// in order.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

// Emit implements Emitter.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}

// EmitBatch implements Emitter. It continues to the remaining emitters after
// one returns an error, returning the first error encountered.
func (m *MultiEmitter) EmitBatch(ctx context.Context, events []Event) error {
	var firstErr error
	for _, e := range m.emitters {
		if err := e.EmitBatch(ctx, events); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Flush implements Emitter, flushing every configured emitter.
func (m *MultiEmitter) Flush(ctx context.Context) error {
	var firstErr error
	for _, e := range m.emitters {
		if err := e.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
