package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repo-auditor/repo-auditor/internal/llm"
)

func TestChat(t *testing.T) {
	t.Parallel()

	p := NewProvider("ollama", "http://mock", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/chat", r.URL.Path)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"message":{"role":"assistant","content":"pong"}}`)),
			}, nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model: "llama3",
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "ping"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "pong", resp.Message.Content)
	require.Equal(t, "stop", resp.FinishReason)
}

func TestChatToolCalls(t *testing.T) {
	t.Parallel()

	p := NewProvider("ollama", "http://mock", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			var body ollamaChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Tools, 2)
			require.Equal(t, "download_repo", body.Tools[0].Function.Name)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body: io.NopCloser(strings.NewReader(`{"message":{"role":"assistant","content":"","tool_calls":[
					{"function":{"name":"download_repo","arguments":{"repo_url":"https://github.com/acme/widgets","ref":"v2"}}},
					{"function":{"name":"scan_envs","arguments":{"root_path":"/tmp/acme"}}}
				]}}`)),
			}, nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model: "llama3.1",
		Tools: []llm.ToolDefinition{
			{Name: "download_repo", Parameters: map[string]interface{}{"type": "object"}},
			{Name: "scan_envs", Parameters: map[string]interface{}{"type": "object"}},
		},
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "audit acme/widgets"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 2)
	require.Empty(t, resp.Message.ToolCalls[0].ID)
	require.Empty(t, resp.Message.ToolCalls[1].ID)
	require.Equal(t, "download_repo", resp.Message.ToolCalls[0].Function.Name)
	require.JSONEq(t, `{"root_path":"/tmp/acme"}`, string(resp.Message.ToolCalls[1].Function.Arguments))
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
