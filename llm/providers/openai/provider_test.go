package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BaSui01/shellagent/llm"
	"github.com/BaSui01/shellagent/llm/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc, mutate ...func(*providers.OpenAIConfig)) *ResponsesProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := providers.OpenAIConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  "test-key",
			BaseURL: srv.URL,
			Timeout: 5 * time.Second,
		},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewResponsesProvider(cfg, zap.NewNop()).WithHTTPClient(srv.Client())
}

func TestResponsesProvider_Name(t *testing.T) {
	p := NewResponsesProvider(providers.OpenAIConfig{}, nil)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, DefaultBaseURL, p.cfg.BaseURL)
}

func TestResponsesProvider_CreateResponse(t *testing.T) {
	var captured map[string]any

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "org-1", r.Header.Get("OpenAI-Organization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
		  "id": "resp_2", "object": "response", "created_at": 1700000000, "status": "completed",
		  "model": "codex-mini-latest",
		  "output": [{"type": "local_shell_call", "id": "lsh_1", "call_id": "call_1",
		              "action": {"type": "exec", "command": ["ls"]}}],
		  "usage": {"input_tokens": 10, "output_tokens": 3, "total_tokens": 13}
		}`)
	}, func(c *providers.OpenAIConfig) { c.Organization = "org-1" })

	resp, err := p.CreateResponse(context.Background(), &llm.ResponseRequest{
		Tools:              []llm.Tool{llm.LocalShellTool},
		Input:              []llm.InputItem{llm.NewShellCallOutput("call_0", "a.txt\n")},
		PreviousResponseID: "resp_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "codex-mini-latest", captured["model"])
	assert.Equal(t, "resp_1", captured["previous_response_id"])
	assert.Equal(t, []any{map[string]any{"type": "local_shell"}}, captured["tools"])
	assert.Equal(t, []any{map[string]any{
		"type": "local_shell_call_output", "call_id": "call_0", "output": "a.txt\n",
	}}, captured["input"])
	_, hasStore := captured["store"]
	assert.False(t, hasStore, "continuations rely on the service-side default store")

	assert.Equal(t, "resp_2", resp.ID)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, time.Unix(1700000000, 0), resp.CreatedAt)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 13, resp.Usage.TotalTokens)

	items := resp.ShellCallItems()
	require.Len(t, items, 1)
	call, ok := items[0].ShellCall()
	require.True(t, ok)
	assert.Equal(t, "call_1", call.CallID)
}

func TestResponsesProvider_ModelOverrideAndMetadata(t *testing.T) {
	var captured map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, `{"id":"resp_1","output":[]}`)
	}, func(c *providers.OpenAIConfig) { c.Model = "gpt-configured" })

	_, err := p.CreateResponse(context.Background(), &llm.ResponseRequest{
		Input:    []llm.InputItem{llm.NewMessageInput(llm.RoleUser, "hi")},
		Metadata: map[string]string{"run_id": "run-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-configured", captured["model"])
	assert.Equal(t, map[string]any{"run_id": "run-1"}, captured["metadata"])
	_, hasStore := captured["store"]
	assert.False(t, hasStore)
}

func TestResponsesProvider_CredentialOverride(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer override-key", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"resp_1","output":[]}`)
	})

	ctx := llm.WithCredentialOverride(context.Background(), llm.CredentialOverride{APIKey: " override-key "})
	_, err := p.CreateResponse(ctx, &llm.ResponseRequest{
		Input: []llm.InputItem{llm.NewMessageInput(llm.RoleUser, "hi")},
	})
	require.NoError(t, err)
}

func TestResponsesProvider_HTTPErrorMapping(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"requests"}}`)
	})

	_, err := p.CreateResponse(context.Background(), &llm.ResponseRequest{
		Input: []llm.InputItem{llm.NewMessageInput(llm.RoleUser, "hi")},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.ErrRateLimited, llmErr.Code)
	assert.Equal(t, "rate limited (type: requests)", llmErr.Message)
}

func TestResponsesProvider_MalformedBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	_, err := p.CreateResponse(context.Background(), &llm.ResponseRequest{
		Input: []llm.InputItem{llm.NewMessageInput(llm.RoleUser, "hi")},
	})
	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.ErrUpstreamError, llmErr.Code)
}

func TestResponsesProvider_EmptyInputRejected(t *testing.T) {
	p := NewResponsesProvider(providers.OpenAIConfig{}, zap.NewNop())
	_, err := p.CreateResponse(context.Background(), &llm.ResponseRequest{})

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.ErrInvalidRequest, llmErr.Code)
}
