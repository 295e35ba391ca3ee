package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/llm"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Seed        *int    `json:"seed"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
}

func newTestModel(t *testing.T, url string) *Model {
	t.Setenv("TEST_OPENAI_KEY", "k")
	m, err := NewModel(Config{BaseURL: url, APIKeyEnv: "TEST_OPENAI_KEY"})
	require.NoError(t, err)
	return m
}

func Test_Generate(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "Gryffindor.", &got)
	defer srv.Close()

	out, err := newTestModel(t, srv.URL).Generate(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "Gryffindor.", out)

	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "PROMPT", got.Messages[0].Content)
	assert.Greater(t, got.Temperature, 0.0)
	assert.Less(t, got.Temperature, 1e-30)
	require.NotNil(t, got.Seed)
	assert.Equal(t, DefaultSeed, *got.Seed)
}

func Test_Generate_EmptyCompletion(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "  ", &got)
	defer srv.Close()

	_, err := newTestModel(t, srv.URL).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func Test_NewModel_MissingKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	_, err := NewModel(Config{APIKeyEnv: "TEST_OPENAI_KEY"})
	assert.Error(t, err)
}
