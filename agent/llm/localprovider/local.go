// Package localprovider implements llm.ChatModel against a local,
// OpenAI-compatible chat endpoint (e.g. llama.cpp's server, Ollama's OpenAI
// shim). Local calls never carry a dollar cost.
package localprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowkit/agentgraph/agent/llm"
)

const requestTimeout = 60 * time.Second

// ChatModel sends chat-completion requests to a local HTTP endpoint using
// the widely-adopted OpenAI chat-completions request/response shape.
type ChatModel struct {
	baseURL   string
	modelName string
	client    *http.Client
}

// NewChatModel builds a ChatModel targeting baseURL, the root of an
// OpenAI-compatible server (e.g. "http://localhost:11434/v1").
func NewChatModel(baseURL, modelName string) *ChatModel {
	return &ChatModel{
		baseURL:   baseURL,
		modelName: modelName,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Chat implements llm.ChatModel. The local-endpoint contract has no tool
// calling; a non-empty tools slice is accepted but ignored.
func (m *ChatModel) Chat(ctx context.Context, messages []llm.Message, _ []llm.ToolSpec) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}
	if m.baseURL == "" {
		return llm.ChatOut{}, fmt.Errorf("local: no endpoint URL configured")
	}

	wireMessages := make([]wireMessage, len(messages))
	for i, msg := range messages {
		wireMessages[i] = wireMessage{Role: msg.Role, Content: msg.Content}
	}

	body, err := json.Marshal(chatRequest{Model: m.modelName, Messages: wireMessages})
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("local: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("local: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("local: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("local: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return llm.ChatOut{}, fmt.Errorf("local: endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var wireResp chatResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return llm.ChatOut{}, fmt.Errorf("local: decode response: %w", err)
	}

	out := llm.ChatOut{
		Usage: llm.Usage{
			InputTokens:  wireResp.Usage.PromptTokens,
			OutputTokens: wireResp.Usage.CompletionTokens,
		},
	}
	if len(wireResp.Choices) > 0 {
		out.Text = wireResp.Choices[0].Message.Content
	}
	return out, nil
}
