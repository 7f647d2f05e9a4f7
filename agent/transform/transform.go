// Package transform implements the data-transform agent: a small set of
// pure, deterministic reshaping operations over the node's input context.
package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowkit/agentgraph/agent"
)

// Operation enumerates the supported transform operations.
type Operation string

const (
	OpPassthrough  Operation = "passthrough"
	OpExtractField Operation = "extract_field"
	OpFilter       Operation = "filter"
	OpMap          Operation = "map"
	OpAggregate    Operation = "aggregate"
	OpMerge        Operation = "merge"
	OpJSONParse    Operation = "json_parse"
)

// AggType enumerates the aggregate sub-operations.
type AggType string

const (
	AggCount AggType = "count"
	AggFirst AggType = "first"
	AggLast  AggType = "last"
)

// Agent applies a single configured Operation to the node's context.
type Agent struct {
	operation      Operation
	inputKey       string
	field          string
	conditionField string
	conditionValue string
	template       string
	aggType        AggType
	outputKey      string
}

// New builds the data-transform agent from a node's merged configuration.
func New(config map[string]any) (agent.Agent, error) {
	op, _ := config["operation"].(string)
	if op == "" {
		return nil, fmt.Errorf("transform: operation is required")
	}
	a := &Agent{operation: Operation(op)}
	a.inputKey, _ = config["input_key"].(string)
	a.field, _ = config["field"].(string)
	a.conditionField, _ = config["condition_field"].(string)
	a.conditionValue, _ = config["condition_value"].(string)
	a.template, _ = config["template"].(string)
	a.outputKey, _ = config["output_key"].(string)
	if agg, ok := config["agg_type"].(string); ok {
		a.aggType = AggType(agg)
	}
	return a, nil
}

// Run implements agent.Agent.
func (a *Agent) Run(_ context.Context, _ string, agentCtx agent.Context) agent.Result {
	var input any = map[string]any(agentCtx)
	if a.inputKey != "" {
		input = agentCtx[a.inputKey]
	}

	result, err := a.apply(input)
	if err != nil {
		return agent.Failure(err.Error())
	}

	if a.outputKey != "" {
		result = map[string]any{a.outputKey: result}
	}

	return agent.Result{Success: true, Output: result, Metadata: map[string]any{"operation": string(a.operation)}}
}

func (a *Agent) apply(input any) (any, error) {
	switch a.operation {
	case OpPassthrough:
		return input, nil
	case OpExtractField:
		return extractField(input, a.field), nil
	case OpFilter:
		return filterSequence(input, a.conditionField, a.conditionValue), nil
	case OpMap:
		return mapSequence(input, a.template), nil
	case OpAggregate:
		return aggregate(input, a.aggType), nil
	case OpMerge:
		return merge(input), nil
	case OpJSONParse:
		return jsonParse(input), nil
	default:
		return nil, fmt.Errorf("transform: unsupported operation %q", a.operation)
	}
}

// extractField resolves a dotted path; segments of all digits index into
// ordered sequences. A missing segment yields nil.
func extractField(input any, path string) any {
	if path == "" {
		return input
	}
	current := input
	for _, segment := range strings.Split(path, ".") {
		if current == nil {
			return nil
		}
		if isAllDigits(segment) {
			seq, ok := current.([]any)
			if !ok {
				return nil
			}
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(seq) {
				return nil
			}
			current = seq[idx]
			continue
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[segment]
	}
	return current
}

func filterSequence(input any, conditionField, conditionValue string) any {
	seq, ok := input.([]any)
	if !ok {
		return []any{}
	}
	var kept []any
	for _, item := range seq {
		actual := extractField(item, conditionField)
		if stringify(actual) == conditionValue {
			kept = append(kept, item)
		}
	}
	if kept == nil {
		kept = []any{}
	}
	return kept
}

func mapSequence(input any, template string) any {
	seq, ok := input.([]any)
	if !ok {
		return []any{}
	}
	mapped := make([]any, len(seq))
	for i, item := range seq {
		mapped[i] = strings.ReplaceAll(template, "{item}", stringify(item))
	}
	return mapped
}

func aggregate(input any, aggType AggType) any {
	seq, ok := input.([]any)
	if !ok {
		seq = nil
	}
	switch aggType {
	case AggCount:
		return map[string]any{"count": len(seq)}
	case AggFirst:
		if len(seq) == 0 {
			return nil
		}
		return seq[0]
	case AggLast:
		if len(seq) == 0 {
			return nil
		}
		return seq[len(seq)-1]
	default:
		return nil
	}
}

// merge returns the shallow union of a mapping's values when those values
// are themselves mappings.
func merge(input any) any {
	outer, ok := input.(map[string]any)
	if !ok {
		return input
	}
	merged := map[string]any{}
	for _, v := range outer {
		inner, ok := v.(map[string]any)
		if !ok {
			return input
		}
		for k, iv := range inner {
			merged[k] = iv
		}
	}
	return merged
}

func jsonParse(input any) any {
	s, ok := input.(string)
	if !ok {
		return input
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return input
	}
	return decoded
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
