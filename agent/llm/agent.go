package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/flowkit/agentgraph/agent"
	"github.com/flowkit/agentgraph/agent/llm/anthropicprovider"
	"github.com/flowkit/agentgraph/agent/llm/googleprovider"
	"github.com/flowkit/agentgraph/agent/llm/localprovider"
	"github.com/flowkit/agentgraph/agent/llm/openaiprovider"
	"github.com/flowkit/agentgraph/cost"
	"github.com/flowkit/agentgraph/credential"
	"github.com/flowkit/agentgraph/retry"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000

	defaultMaxAttempts = 3
	retryBaseDelay     = 500 * time.Millisecond
	retryMaxDelay      = 8 * time.Second
)

// Agent dispatches a node's objective to whichever chat provider the
// configured credentials select.
type Agent struct {
	provider     string
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int
	chat         ChatModel
	tracker      *cost.Tracker
	nodeID       string
}

// New builds the LLM agent from a node's merged configuration.
//
// Provider selection order, unless config["provider"] names one explicitly:
// openai (if creds.OpenAIKey() is set), then anthropic, then the local HTTP
// endpoint. config["provider"] == "google" selects Gemini as a supplemental
// fourth option.
func New(config map[string]any, creds credential.Provider, tracker *cost.Tracker, nodeID string) (agent.Agent, error) {
	a := &Agent{
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		tracker:     tracker,
		nodeID:      nodeID,
	}

	if v, ok := config["system_prompt"].(string); ok {
		a.systemPrompt = v
	}
	if v, ok := config["model"].(string); ok {
		a.model = v
	}
	if v, ok := asFloat(config["temperature"]); ok {
		a.temperature = v
	}
	if v, ok := asInt(config["max_tokens"]); ok {
		a.maxTokens = v
	}

	a.provider = selectProvider(config, creds)
	a.chat = buildChatModel(a.provider, a.model, creds)

	return a, nil
}

func selectProvider(config map[string]any, creds credential.Provider) string {
	if v, ok := config["provider"].(string); ok && v != "" {
		return v
	}
	switch {
	case creds.OpenAIKey() != "":
		return "openai"
	case creds.AnthropicKey() != "":
		return "anthropic"
	default:
		return "local"
	}
}

func buildChatModel(provider, model string, creds credential.Provider) ChatModel {
	switch provider {
	case "anthropic":
		return anthropicprovider.NewChatModel(creds.AnthropicKey(), model)
	case "google":
		return googleprovider.NewChatModel(creds.GoogleKey(), model)
	case "local":
		return localprovider.NewChatModel(creds.LocalLLMURL(), model)
	default:
		return openaiprovider.NewChatModel(creds.OpenAIKey(), model)
	}
}

// Run implements agent.Agent.
func (a *Agent) Run(ctx context.Context, objective string, agentCtx agent.Context) agent.Result {
	start := time.Now()

	messages := a.buildMessages(objective, agentCtx)

	var out ChatOut
	policy := retry.Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   retryBaseDelay,
		MaxDelay:    retryMaxDelay,
		Retryable:   isRetryableProviderError,
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		o, chatErr := a.chat.Chat(ctx, messages, nil)
		if chatErr != nil {
			return chatErr
		}
		out = o
		return nil
	})
	if err != nil {
		return agent.Failure(err.Error())
	}

	// Every provider's usage is recorded, including local: the tracker is
	// the run's sole source of total_tokens (execute.go), so a node that
	// reports nonzero TokensUsed must also reach the tracker or the
	// per-node and run-level totals diverge. Local calls are recorded under
	// an empty model name, which has no pricing table entry, so they cost
	// zero whatever the local model is called.
	costUSD := 0.0
	if out.Usage.InputTokens+out.Usage.OutputTokens > 0 {
		pricedModel := a.model
		if a.provider == "local" {
			pricedModel = ""
		}
		call := a.tracker.Record(pricedModel, a.nodeID, out.Usage.InputTokens, out.Usage.OutputTokens)
		costUSD = call.CostUSD
	}

	return agent.Result{
		Success:    true,
		Output:     out.Text,
		TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens,
		CostUSD:    costUSD,
		Metadata: map[string]any{
			"provider":    a.provider,
			"model":       a.model,
			"duration_ms": time.Since(start).Milliseconds(),
		},
	}
}

func (a *Agent) buildMessages(objective string, agentCtx agent.Context) []Message {
	messages := []Message{{Role: RoleSystem, Content: a.systemPrompt}}

	if len(agentCtx) > 0 {
		if encoded, err := json.Marshal(agentCtx); err == nil {
			messages = append(messages, Message{Role: RoleUser, Content: string(encoded)})
		}
	}

	messages = append(messages, Message{Role: RoleUser, Content: objective})
	return messages
}

// isRetryableProviderError classifies a ChatModel.Chat error as worth
// retrying: rate limits and the usual markers of a transient network or
// server fault, shared across providers regardless of which SDK raised it.
func isRetryableProviderError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "429", "timeout", "network", "connection", "temporary", "overloaded", "503", "502", "500"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
