// Package conditional implements the conditional agent: it evaluates a
// single comparison against the node's input context and reports which
// branch the execution driver should take.
package conditional

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowkit/agentgraph/agent"
)

// Operator enumerates the supported comparison operators.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNe          Operator = "ne"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

var orderedOperators = map[Operator]bool{
	OpGt: true, OpGte: true, OpLt: true, OpLte: true,
}

// Agent evaluates field <operator> value against the node's context and
// never fails from a semantic mismatch: an unrepresentable comparison
// simply evaluates to false.
type Agent struct {
	field    string
	operator Operator
	value    any
}

// New builds the conditional agent from a node's merged configuration.
func New(config map[string]any) (agent.Agent, error) {
	field, _ := config["field"].(string)
	op, _ := config["operator"].(string)
	if field == "" {
		return nil, fmt.Errorf("conditional: field is required")
	}
	if op == "" {
		return nil, fmt.Errorf("conditional: operator is required")
	}
	return &Agent{field: field, operator: Operator(op), value: config["value"]}, nil
}

// Run implements agent.Agent.
func (a *Agent) Run(_ context.Context, _ string, agentCtx agent.Context) agent.Result {
	actual := lookupPath(map[string]any(agentCtx), a.field)
	met := evaluate(a.operator, actual, a.value)

	branch := "false"
	if met {
		branch = "true"
	}

	return agent.Result{
		Success: true,
		Output: map[string]any{
			"condition_met": met,
			"branch":        branch,
			"evaluated":     fmt.Sprintf("%s %s %v => %v", a.field, a.operator, a.value, met),
		},
		Metadata: map[string]any{"field": a.field, "operator": string(a.operator)},
	}
}

func evaluate(op Operator, actual, expected any) bool {
	switch op {
	case OpEq:
		return stringify(actual) == stringify(expected)
	case OpNe:
		return stringify(actual) != stringify(expected)
	case OpIsEmpty:
		return isEmpty(actual)
	case OpIsNotEmpty:
		return !isEmpty(actual)
	case OpContains:
		return strings.Contains(stringify(actual), stringify(expected))
	case OpNotContains:
		return !strings.Contains(stringify(actual), stringify(expected))
	case OpGt, OpGte, OpLt, OpLte:
		return evaluateOrdered(op, actual, expected)
	default:
		return false
	}
}

// evaluateOrdered attempts numeric coercion of both sides; on failure it
// falls back to the raw values, which compare lexicographically only when
// both are strings. Any other pairing (a string against a number, a missing
// field) is unrepresentable and evaluates to false.
func evaluateOrdered(op Operator, actual, expected any) bool {
	actualNum, actualOK := asFloat(actual)
	expectedNum, expectedOK := asFloat(expected)

	if actualOK && expectedOK {
		switch op {
		case OpGt:
			return actualNum > expectedNum
		case OpGte:
			return actualNum >= expectedNum
		case OpLt:
			return actualNum < expectedNum
		case OpLte:
			return actualNum <= expectedNum
		}
	}

	actualStr, actualIsStr := actual.(string)
	expectedStr, expectedIsStr := expected.(string)
	if !actualIsStr || !expectedIsStr {
		return false
	}
	switch op {
	case OpGt:
		return actualStr > expectedStr
	case OpGte:
		return actualStr >= expectedStr
	case OpLt:
		return actualStr < expectedStr
	case OpLte:
		return actualStr <= expectedStr
	}
	return false
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// lookupPath resolves a dotted path like "user.address.0.city" against a
// context map, indexing into ordered sequences when a segment is all
// digits. A missing segment yields nil.
func lookupPath(ctx map[string]any, path string) any {
	var current any = ctx
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
