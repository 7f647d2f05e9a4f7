package agentgraph

import "github.com/google/uuid"

// newRunID returns a globally unique identifier for one Execute call, used
// to correlate NodeResult entries, telemetry events, and metrics samples
// belonging to the same run.
func newRunID() string {
	return uuid.NewString()
}
