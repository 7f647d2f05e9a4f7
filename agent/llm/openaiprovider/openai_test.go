package openaiprovider

import (
	"context"
	"errors"
	"testing"

	"github.com/flowkit/agentgraph/agent/llm"
)

func TestOpenAIChatModel_Construction(t *testing.T) {
	t.Run("creates model with API key", func(t *testing.T) {
		m := NewChatModel("test-api-key", "gpt-4")
		if m == nil {
			t.Fatal("expected non-nil model")
		}
	})

	t.Run("creates model with default model name", func(t *testing.T) {
		m := NewChatModel("test-api-key", "")
		if m == nil {
			t.Fatal("expected non-nil model")
		}
	})
}

func TestOpenAIChatModel_Chat(t *testing.T) {
	t.Run("sends messages and returns response", func(t *testing.T) {
		mockClient := &mockOpenAIClient{response: "Hello! How can I help you?"}
		m := &ChatModel{client: mockClient, modelName: "gpt-4"}

		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: "You are helpful."},
			{Role: llm.RoleUser, Content: "Hi there!"},
		}

		out, err := m.Chat(context.Background(), messages, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Text != "Hello! How can I help you?" {
			t.Errorf("expected specific text, got %q", out.Text)
		}
		if mockClient.callCount != 1 {
			t.Errorf("expected 1 API call, got %d", mockClient.callCount)
		}
	})

	t.Run("handles tool calls in response", func(t *testing.T) {
		mockClient := &mockOpenAIClient{
			toolCalls: []llm.ToolCall{{Name: "search", Input: map[string]interface{}{"query": "test"}}},
		}
		m := &ChatModel{client: mockClient, modelName: "gpt-4"}

		messages := []llm.Message{{Role: llm.RoleUser, Content: "Search for test"}}
		tools := []llm.ToolSpec{{Name: "search", Description: "Search the web"}}

		out, err := m.Chat(context.Background(), messages, tools)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(out.ToolCalls) != 1 {
			t.Fatalf("expected 1 tool call, got %d", len(out.ToolCalls))
		}
		if out.ToolCalls[0].Name != "search" {
			t.Errorf("expected tool name 'search', got %q", out.ToolCalls[0].Name)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		mockClient := &mockOpenAIClient{response: "Response"}
		m := &ChatModel{client: mockClient, modelName: "gpt-4"}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "Test"}}, nil)
		if err == nil {
			t.Fatal("expected context.Canceled error, got nil")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestOpenAIChatModel_ErrorHandling(t *testing.T) {
	t.Run("handles API errors", func(t *testing.T) {
		mockClient := &mockOpenAIClient{err: errors.New("API error: invalid request")}
		m := &ChatModel{client: mockClient, modelName: "gpt-4"}

		_, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Test"}}, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("surfaces rate limit errors to the caller", func(t *testing.T) {
		mockClient := &mockOpenAIClient{err: &rateLimitError{message: "rate limit exceeded"}}
		m := &ChatModel{client: mockClient, modelName: "gpt-4"}

		_, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Test"}}, nil)
		if err == nil {
			t.Fatal("expected rate limit error, got nil")
		}

		var rateLimitErr *rateLimitError
		if !errors.As(err, &rateLimitErr) {
			t.Errorf("expected rateLimitError type, got %T", err)
		}
		if mockClient.callCount != 1 {
			t.Errorf("ChatModel.Chat should make exactly 1 attempt, got %d", mockClient.callCount)
		}
	})

	t.Run("handles empty API key", func(t *testing.T) {
		m := NewChatModel("", "gpt-4")

		_, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Test"}}, nil)
		if err == nil {
			t.Error("expected error for empty API key")
		}
	})
}

func TestIsTransientError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"rate limit error", &rateLimitError{message: "rate limit"}, true},
		{"timeout message", errors.New("request timeout"), true},
		{"network message", errors.New("network unreachable"), true},
		{"503 message", errors.New("server returned 503"), true},
		{"invalid request", errors.New("invalid API key"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransientError(tc.err); got != tc.want {
				t.Errorf("IsTransientError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestOpenAIChatModel_MessageConversion(t *testing.T) {
	t.Run("converts all message types", func(t *testing.T) {
		mockClient := &mockOpenAIClient{response: "Converted successfully"}
		m := &ChatModel{client: mockClient, modelName: "gpt-4"}

		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: "System prompt"},
			{Role: llm.RoleUser, Content: "User message"},
			{Role: llm.RoleAssistant, Content: "Assistant response"},
		}

		_, err := m.Chat(context.Background(), messages, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mockClient.lastMessages) != 3 {
			t.Errorf("expected 3 messages sent, got %d", len(mockClient.lastMessages))
		}
	})
}

// mockOpenAIClient is the call-out seam mocked for tests.
type mockOpenAIClient struct {
	response     string
	toolCalls    []llm.ToolCall
	err          error
	callCount    int
	lastMessages []llm.Message
}

func (m *mockOpenAIClient) createChatCompletion(_ context.Context, messages []llm.Message, _ []llm.ToolSpec) (llm.ChatOut, error) {
	m.callCount++
	m.lastMessages = messages

	if m.err != nil {
		return llm.ChatOut{}, m.err
	}

	return llm.ChatOut{Text: m.response, ToolCalls: m.toolCalls}, nil
}
