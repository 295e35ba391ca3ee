package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"oracle/internal/chunker"
	"oracle/internal/domain"
	"oracle/internal/loader"
	"oracle/internal/vectorstore/memory"
)

const hogwartsText = `Harry Potter lived in a cupboard under the stairs at number four, Privet Drive, with his aunt, his uncle and his cousin Dudley.

On his eleventh birthday a giant named Hagrid arrived with a letter inviting him to study at Hogwarts School of Witchcraft and Wizardry.

In the Great Hall the Sorting Hat was placed on his head. After a long pause it shouted Gryffindor, and Harry joined the Gryffindor house table.

He soon made friends with Ron Weasley and Hermione Granger, and together they explored the castle corridors at night.

At the end of the year they protected the Philosopher's Stone from Voldemort, who had been hiding under the turban of Professor Quirrell.`

const cookingText = `Boil the pasta in plenty of salted water until it is tender but still firm to the bite.

Meanwhile warm the oven, toss the vegetables with oil and a pinch of salt and roast them until golden.`

var keywords = []string{"gryffindor", "house", "hogwarts", "sorting", "hat", "pasta", "salt", "boil", "oven"}

// keywordEmbedder counts whole-word keyword occurrences.
type keywordEmbedder struct {
	batches []int
	err     error
}

func (e *keywordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(keywords))
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		for i, k := range keywords {
			if w == k {
				v[i]++
			}
		}
	}
	return v
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.batches = append(e.batches, len(texts))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) Dimension() int { return len(keywords) }

// groundedModel answers the house question only when the context supports it.
type groundedModel struct {
	refusal string
	prompts []string
	err     error
	reply   string
}

func (m *groundedModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if m.reply != "" {
		return m.reply, nil
	}
	ctxBlock, question := splitPrompt(prompt)
	if strings.Contains(strings.ToLower(question), "house") && strings.Contains(ctxBlock, "Gryffindor") {
		return "Harry is placed in Gryffindor.", nil
	}
	return m.refusal, nil
}

func splitPrompt(prompt string) (context, question string) {
	_, rest, _ := strings.Cut(prompt, "CONTEXT:\n")
	context, rest, _ = strings.Cut(rest, "\n\nQUESTION: ")
	question, _, _ = strings.Cut(rest, "\n")
	return context, question
}

type fixture struct {
	dir      string
	hogwarts string
	cooking  string
	embedder *keywordEmbedder
	model    *groundedModel
	index    *memory.Index
	ingestor *Ingestor
	answerer *Answerer
}

func newFixture(t *testing.T, log zerolog.Logger) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		hogwarts: filepath.Join(dir, "hogwarts.txt"),
		cooking:  filepath.Join(dir, "cooking.txt"),
		embedder: &keywordEmbedder{},
		model:    &groundedModel{refusal: DefaultRefusal},
	}
	require.NoError(t, os.WriteFile(f.hogwarts, []byte(hogwartsText), 0o644))
	require.NoError(t, os.WriteFile(f.cooking, []byte(cookingText), 0o644))

	idx, err := memory.NewIndex("", zerolog.Nop())
	require.NoError(t, err)
	f.index = idx
	f.ingestor = NewIngestor(loader.NewUniversal(), chunker.NewRecursiveChunker(200, 30), f.embedder, idx, "docs", 3, log)
	f.answerer = NewAnswerer(NewRetriever(f.embedder, idx, "docs", 0), f.model, "", log)
	return f
}

func (f *fixture) all(t *testing.T) []domain.ScoredFragment {
	t.Helper()
	res, err := f.index.Query(context.Background(), "docs", make([]float32, len(keywords)), 1000)
	require.NoError(t, err)
	return res
}

type failingIndex struct{ err error }

func (i failingIndex) Write(context.Context, string, []domain.Fragment, bool) error { return i.err }

func (i failingIndex) Query(context.Context, string, []float32, int) ([]domain.ScoredFragment, error) {
	return nil, i.err
}

var errBoom = errors.New("boom")
