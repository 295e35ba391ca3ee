package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/llm"
)

func stub(resp *genai.GenerateContentResponse, err error) *Model {
	return &Model{generate: func(context.Context, string) (*genai.GenerateContentResponse, error) {
		return resp, err
	}}
}

func Test_Generate_JoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Gryffindor"), genai.Text(".")}},
	}}}
	out, err := stub(resp, nil).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Gryffindor.", out)
}

func Test_Generate_Empty(t *testing.T) {
	for name, resp := range map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
		"blank":         {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(" ")}}}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := stub(resp, nil).Generate(context.Background(), "p")
			assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
		})
	}
}

func Test_Generate_Error(t *testing.T) {
	boom := errors.New("quota")
	m := stub(nil, boom)
	_, err := m.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, m.Close())
}

func Test_NewModel_MissingKey(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "")
	_, err := NewModel(context.Background(), Config{APIKeyEnv: "TEST_GEMINI_KEY"})
	assert.Error(t, err)
}
