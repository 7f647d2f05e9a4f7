// Package codeexec implements the code-execution agent: it runs a small
// expression-language program against the node's input context inside a
// restricted evaluation environment.
//
// The restriction is a capability boundary, not a security boundary: it
// limits the program to a named whitelist of primitives, but makes no
// attempt to resist a hostile author of the code.
package codeexec

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"strings"
	"time"

	"github.com/expr-lang/expr"

	"github.com/flowkit/agentgraph/agent"
)

const defaultTimeout = 30 * time.Second

// Agent evaluates a program in an expr-lang environment seeded with the
// node's context and a captured-stdout "print" primitive.
type Agent struct {
	code    string
	timeout time.Duration
}

// New builds the code-execution agent from a node's merged configuration.
// code falls back to the node's objective at Run time when absent here.
func New(config map[string]any) (agent.Agent, error) {
	a := &Agent{timeout: defaultTimeout}
	a.code, _ = config["code"].(string)
	if secs, ok := asFloat(config["timeout"]); ok && secs > 0 {
		a.timeout = time.Duration(secs * float64(time.Second))
	}
	return a, nil
}

type evalOutcome struct {
	output any
	err    error
	stack  string
}

// Run implements agent.Agent.
func (a *Agent) Run(ctx context.Context, objective string, agentCtx agent.Context) agent.Result {
	code := a.code
	if code == "" {
		code = objective
	}
	if strings.TrimSpace(code) == "" {
		return agent.Failure("codeexec: no code to execute")
	}

	var stdout bytes.Buffer
	env := buildEnvironment(agentCtx, &stdout)

	done := make(chan evalOutcome, 1)
	go func() {
		output, err, stack := a.evaluate(code, env)
		done <- evalOutcome{output: output, err: err, stack: stack}
	}()

	select {
	case outcome := <-done:
		if outcome.err != nil {
			return agent.Result{
				Success:  false,
				Output:   fmt.Sprintf("codeexec: %v", outcome.err),
				Metadata: map[string]any{"stdout": stdout.String(), "stderr": outcome.err.Error(), "stack": outcome.stack},
			}
		}
		return agent.Result{
			Success:  true,
			Output:   preferOutput(outcome.output, stdout.String()),
			Metadata: map[string]any{"stdout": stdout.String(), "stderr": ""},
		}
	case <-time.After(a.timeout):
		return agent.Failure("codeexec: execution timed out")
	case <-ctx.Done():
		return agent.Failure(fmt.Sprintf("codeexec: %v", ctx.Err()))
	}
}

func (a *Agent) evaluate(code string, env map[string]any) (out any, err error, stack string) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			stack = string(debug.Stack())
		}
	}()

	program, compileErr := expr.Compile(code, expr.Env(env))
	if compileErr != nil {
		return nil, fmt.Errorf("compile: %w", compileErr), ""
	}
	out, err = expr.Run(program, env)
	return out, err, ""
}

// preferOutput implements the result-preference order: the program's own
// return value first, then captured stdout, then a fixed marker.
func preferOutput(output any, stdout string) any {
	if output != nil {
		return output
	}
	if stdout != "" {
		return stdout
	}
	return "executed successfully"
}

func buildEnvironment(agentCtx agent.Context, stdout *bytes.Buffer) map[string]any {
	env := map[string]any{
		"context": map[string]any(agentCtx),

		"print": func(args ...any) any {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = fmt.Sprintf("%v", a)
			}
			stdout.WriteString(strings.Join(parts, " "))
			stdout.WriteString("\n")
			return nil
		},

		"len": func(v any) int {
			switch t := v.(type) {
			case string:
				return len(t)
			case []any:
				return len(t)
			case map[string]any:
				return len(t)
			default:
				return 0
			}
		},
		"abs":   math.Abs,
		"sqrt":  math.Sqrt,
		"pow":   math.Pow,
		"round": math.Round,
		"floor": math.Floor,
		"ceil":  math.Ceil,

		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,

		"isString": func(v any) bool { _, ok := v.(string); return ok },
		"isNumber": func(v any) bool {
			switch v.(type) {
			case float64, float32, int, int64:
				return true
			default:
				return false
			}
		},
		"isNull": func(v any) bool { return v == nil },
		"isList": func(v any) bool { _, ok := v.([]any); return ok },
		"isMap":  func(v any) bool { _, ok := v.(map[string]any); return ok },
	}
	return env
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
