package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/llm"
)

func testPolicy(waits *[]time.Duration) llm.Policy {
	return llm.Policy{
		MaxAttempts: 3,
		Backoff:     llm.ExponentialBackoff(30 * time.Second),
		Sleep: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func newTestClient(t *testing.T, url string, waits *[]time.Duration) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL: url,
		Model:   "test-model",
		Retry:   testPolicy(waits),
	}, nil)
}

func TestGenerate_RetriesOnServerErrorThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		require.Equal(t, "/api/generate", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.Equal(t, false, body["stream"])

		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "test-model",
			"response":          "generated text",
			"done":              true,
			"prompt_eval_count": 11,
			"eval_count":        42,
		})
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)

	res, err := c.Generate(context.Background(), llm.GenerationRequest{Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "generated text", res.Text)
	assert.Equal(t, "test-model", res.Model)
	assert.Equal(t, 11, res.PromptTokens)
	assert.Equal(t, 42, res.CompletionTokens)
	assert.True(t, res.Done)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, waits)
}

func TestGenerate_ExhaustsAttemptsWhenBackendDown(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)

	_, err := c.Generate(context.Background(), llm.GenerationRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBackendUnreachable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_MissingResponseFieldIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"done":  true,
		})
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)

	_, err := c.Generate(context.Background(), llm.GenerationRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestGenerate_InvalidJSONIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)

	_, err := c.Generate(context.Background(), llm.GenerationRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestGenerate_EmptyResponseStringIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    "test-model",
			"response": "",
			"done":     true,
		})
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)

	res, err := c.Generate(context.Background(), llm.GenerationRequest{Prompt: "hello"})
	require.NoError(t, err, "present-but-empty response field is well-formed")
	assert.Equal(t, "", res.Text)
}

func TestGenerate_ValidationErrorsSkipNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid generation request")
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)

	tests := []struct {
		name string
		req  llm.GenerationRequest
	}{
		{"empty prompt", llm.GenerationRequest{Prompt: ""}},
		{"negative max_tokens", llm.GenerationRequest{Prompt: "hi", MaxTokens: -5}},
		{"temperature above 1", llm.GenerationRequest{Prompt: "hi", Temperature: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestGenerate_AppliesClientDefaults(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok", "done": true})
	}))
	defer srv.Close()

	var waits []time.Duration
	c := NewClient(Config{
		BaseURL:     srv.URL,
		Model:       "default-model",
		MaxTokens:   512,
		Temperature: 0.4,
		Retry:       testPolicy(&waits),
	}, nil)

	_, err := c.Generate(context.Background(), llm.GenerationRequest{Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "default-model", got["model"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 512, opts["num_predict"])
	assert.InDelta(t, 0.4, opts["temperature"], 1e-6)
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)
	assert.True(t, c.TestConnection(context.Background()))

	srv.Close()
	assert.False(t, c.TestConnection(context.Background()), "closed backend reports unreachable")
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "deepseek-coder"},
				{"name": "mistral-7b"},
			},
		})
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient(t, srv.URL, &waits)

	assert.Equal(t, []string{"deepseek-coder", "mistral-7b"}, c.ListModels(context.Background()))

	srv.Close()
	assert.Empty(t, c.ListModels(context.Background()), "failure yields empty slice")
}
