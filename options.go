package agentgraph

import (
	"time"

	"github.com/flowkit/agentgraph/agent/registry"
	"github.com/flowkit/agentgraph/credential"
	"github.com/flowkit/agentgraph/definitionstore"
	"github.com/flowkit/agentgraph/definitionstore/memory"
	"github.com/flowkit/agentgraph/telemetry/emit"
	"github.com/flowkit/agentgraph/telemetry/metrics"
)

const defaultNodeTimeout = 30 * time.Second

// config collects the effect of every Option passed to Execute.
type config struct {
	emitter        emit.Emitter
	metrics        *metrics.Recorder
	defaultTimeout time.Duration
	cancel         <-chan struct{}
	registry       *registry.Registry
	defStore       definitionstore.Lookup
	creds          credential.Provider
}

// Option customizes the execution driver. The zero-value configuration uses
// an emit.NullEmitter, no metrics, a 30s default per-node timeout, the
// built-in six-agent registry backed by credential.EnvProvider, and an
// empty in-memory definition store.
type Option func(*config)

// WithEmitter sets the Emitter the driver reports run/node lifecycle events
// to. Default is emit.NewNullEmitter().
func WithEmitter(e emit.Emitter) Option {
	return func(c *config) { c.emitter = e }
}

// WithMetrics sets the Prometheus recorder the driver reports node duration,
// run outcome, and token/cost counters to. Default is nil (no metrics).
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *config) { c.metrics = r }
}

// WithDefaultTimeout bounds how long the driver waits for a single node's
// agent.Run call, as a backstop independent of any timeout the agent's own
// configuration applies internally. Default is 30s.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// WithCancel supplies a channel the driver polls between nodes; closing it
// ends the run with RunFailed, leaving the about-to-run node's NodeResult
// carrying ErrCancelled. A node already in flight always runs to
// completion first — cancellation only ever takes effect between nodes.
func WithCancel(cancel <-chan struct{}) Option {
	return func(c *config) { c.cancel = cancel }
}

// WithAgentRegistry overrides the default six-agent registry built fresh
// for each run from the configured credential.Provider and that run's cost
// tracker, e.g. to substitute mock agents in tests or add custom agent
// kinds.
func WithAgentRegistry(r *registry.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithDefinitionStore overrides the default empty in-memory definition
// store consulted for nodes carrying an AgentDefID.
func WithDefinitionStore(s definitionstore.Lookup) Option {
	return func(c *config) { c.defStore = s }
}

// WithCredentialProvider overrides the default environment-variable-backed
// credential.Provider used to build the default agent registry. Has no
// effect if WithAgentRegistry is also supplied.
func WithCredentialProvider(p credential.Provider) Option {
	return func(c *config) { c.creds = p }
}

func newConfig(opts []Option) *config {
	c := &config{
		emitter:        emit.NewNullEmitter(),
		defaultTimeout: defaultNodeTimeout,
		creds:          credential.EnvProvider{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defStore == nil {
		c.defStore = definitionstore.Lookup(memory.New())
	}
	return c
}
