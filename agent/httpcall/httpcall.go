// Package httpcall implements the HTTP-call agent: template-interpolated
// requests against an arbitrary external endpoint.
package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowkit/agentgraph/agent"
	"github.com/flowkit/agentgraph/retry"
)

const (
	defaultMethod  = http.MethodGet
	defaultTimeout = 30 * time.Second

	defaultMaxAttempts = 3
	retryBaseDelay     = 200 * time.Millisecond
	retryMaxDelay      = 5 * time.Second
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Agent performs a single HTTP request per Run, interpolating `{{key}}`
// placeholders in the URL, header values, and body from the node's context.
type Agent struct {
	url         string
	method      string
	headers     map[string]string
	body        string
	timeout     time.Duration
	maxAttempts int
	client      *http.Client
}

// New builds the HTTP-call agent from a node's merged configuration.
func New(config map[string]any) (agent.Agent, error) {
	a := &Agent{method: defaultMethod, timeout: defaultTimeout, maxAttempts: defaultMaxAttempts, client: &http.Client{}}

	v, ok := config["url"].(string)
	if !ok || v == "" {
		return nil, fmt.Errorf("httpcall: url is required")
	}
	a.url = v

	if m, ok := config["method"].(string); ok && m != "" {
		method := strings.ToUpper(m)
		if !allowedMethods[method] {
			return nil, fmt.Errorf("httpcall: unsupported method %q", m)
		}
		a.method = method
	}

	if headers, ok := config["headers"].(map[string]any); ok {
		a.headers = make(map[string]string, len(headers))
		for k, hv := range headers {
			if s, ok := hv.(string); ok {
				a.headers[k] = s
			}
		}
	}

	if b, ok := config["body"].(string); ok {
		a.body = b
	}

	if secs, ok := asFloat(config["timeout"]); ok && secs > 0 {
		a.timeout = time.Duration(secs * float64(time.Second))
	}

	if n, ok := asFloat(config["max_attempts"]); ok && n >= 1 {
		a.maxAttempts = int(n)
	}

	return a, nil
}

// Run implements agent.Agent.
func (a *Agent) Run(ctx context.Context, _ string, agentCtx agent.Context) agent.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	finalURL := interpolate(a.url, agentCtx)
	finalBody := interpolate(a.body, agentCtx)

	var resp *http.Response
	policy := retry.Policy{
		MaxAttempts: a.maxAttempts,
		BaseDelay:   retryBaseDelay,
		MaxDelay:    retryMaxDelay,
		Retryable:   isRetryableResponse,
	}

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var bodyReader io.Reader
		if finalBody != "" {
			bodyReader = bytes.NewBufferString(finalBody)
		}

		req, err := http.NewRequestWithContext(ctx, a.method, finalURL, bodyReader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		for k, v := range a.headers {
			req.Header.Set(k, interpolate(v, agentCtx))
		}

		r, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if isTransientStatus(r.StatusCode) {
			r.Body.Close()
			return &transientStatusError{statusCode: r.StatusCode}
		}
		resp = r
		return nil
	})
	if err != nil {
		return agent.Failure(fmt.Sprintf("httpcall: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return agent.Failure(fmt.Sprintf("httpcall: read response: %v", err))
	}

	return agent.Result{
		Success: resp.StatusCode < 400,
		Output:  parseBody(respBody),
		Metadata: map[string]any{
			"status_code": resp.StatusCode,
			"url":         finalURL,
			"method":      a.method,
		},
	}
}

// transientStatusError marks an HTTP response whose status code indicates a
// transient upstream condition (rate limiting, overload) worth retrying.
type transientStatusError struct {
	statusCode int
}

func (e *transientStatusError) Error() string {
	return fmt.Sprintf("transient status %d", e.statusCode)
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func isRetryableResponse(err error) bool {
	var transient *transientStatusError
	if errors.As(err, &transient) {
		return true
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// interpolate replaces each "{{key}}" in s with the string form of
// agentCtx[key]. Replacement is literal, with no escaping.
func interpolate(s string, agentCtx agent.Context) string {
	if s == "" || len(agentCtx) == 0 {
		return s
	}
	for k, v := range agentCtx {
		placeholder := "{{" + k + "}}"
		if strings.Contains(s, placeholder) {
			s = strings.ReplaceAll(s, placeholder, fmt.Sprintf("%v", v))
		}
	}
	return s
}

// parseBody returns the decoded JSON value when the body is structured,
// otherwise the raw string.
func parseBody(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err == nil {
		return decoded
	}
	return string(body)
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
