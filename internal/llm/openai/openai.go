package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"oracle/internal/llm"
)

const (
	DefaultModel = goopenai.GPT4oMini
	DefaultSeed  = 42
)

// Config configures the chat completion model.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Model answers prompts with an OpenAI-compatible chat completion endpoint.
// Sampling is pinned as close to greedy as the API allows.
type Model struct {
	client    *goopenai.Client
	model     string
	maxTokens int
	seed      int
}

func NewModel(cfg Config) (*Model, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	oc := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Model{
		client:    goopenai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		seed:      DefaultSeed,
	}, nil
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	seed := m.seed
	resp, err := m.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: m.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		// zero is dropped by omitempty and the server would fall back to 1
		Temperature: math.SmallestNonzeroFloat32,
		Seed:        &seed,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: %w", llm.ErrEmptyCompletion)
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("openai chat: %w", llm.ErrEmptyCompletion)
	}
	return text, nil
}
