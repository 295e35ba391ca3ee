package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/domain"
)

func doc(pages ...string) domain.Document {
	d := domain.Document{Source: "books/stone.pdf"}
	for i, p := range pages {
		d.Pages = append(d.Pages, domain.Page{Number: i + 1, Text: p})
	}
	return d
}

func texts(chunks []domain.Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Text)
	}
	return out
}

func Test_Chunk_HardCuts(t *testing.T) {
	var cases = []struct {
		input   string
		size    int
		overlap int
		output  []string
	}{
		{input: "abcdefg", size: 3, overlap: 0, output: []string{"abc", "def", "g"}},
		{input: "abcdefg", size: 3, overlap: 1, output: []string{"abc", "cde", "efg"}},
		{input: "abcdefg", size: 9, overlap: 5, output: []string{"abcdefg"}},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			out := NewRecursiveChunker(c.size, c.overlap).Chunk(doc(c.input))
			assert.Equal(t, c.output, texts(out))
		})
	}
}

func Test_Chunk_EmptyDocument(t *testing.T) {
	c := NewRecursiveChunker(10, 2)
	assert.Empty(t, c.Chunk(doc()))
	assert.Empty(t, c.Chunk(doc("", "  \n\t ")))
}

func Test_Chunk_PrefersParagraphBreak(t *testing.T) {
	text := "First paragraph here.\n\nSecond one. It goes on and on."
	chunks := NewRecursiveChunker(30, 0).Chunk(doc(text))
	require.NotEmpty(t, chunks)
	assert.Equal(t, "First paragraph here.\n\n", chunks[0].Text)
}

func Test_Chunk_PrefersSentenceOverWord(t *testing.T) {
	text := "The sorting hat sang. Then it spoke loudly to all"
	chunks := NewRecursiveChunker(30, 0).Chunk(doc(text))
	require.NotEmpty(t, chunks)
	assert.Equal(t, "The sorting hat sang. ", chunks[0].Text)
}

func Test_Chunk_FallsBackToWordBreak(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta"
	chunks := NewRecursiveChunker(14, 0).Chunk(doc(text))
	require.NotEmpty(t, chunks)
	assert.Equal(t, "alpha beta ", chunks[0].Text)
}

func Test_Chunk_IgnoresBreaksInFirstHalf(t *testing.T) {
	text := "a bcdefghijklmnopqrstuvwxyz"
	chunks := NewRecursiveChunker(10, 0).Chunk(doc(text))
	require.NotEmpty(t, chunks)
	assert.Equal(t, "a bcdefghi", chunks[0].Text)
}

func Test_Chunk_SizeAndOverlapInvariants(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "Sentence number %d talks about owls and wands. ", i)
		if i%7 == 0 {
			sb.WriteString("\n\n")
		}
		if i%11 == 0 {
			sb.WriteString("¿Dónde está el andén nueve y tres cuartos?\n")
		}
	}
	text := sb.String()

	for _, tc := range []struct{ size, overlap int }{{50, 0}, {100, 20}, {200, 150}, {1000, 150}, {37, 36}} {
		t.Run(fmt.Sprintf("size_%d_overlap_%d", tc.size, tc.overlap), func(t *testing.T) {
			chunks := NewRecursiveChunker(tc.size, tc.overlap).Chunk(doc(text))
			require.NotEmpty(t, chunks)

			for i, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), tc.size)
				assert.Equal(t, i, c.Index)
				if i == 0 {
					continue
				}
				prev := []rune(chunks[i-1].Text)
				tail := string(prev[len(prev)-tc.overlap:])
				assert.True(t, strings.HasPrefix(c.Text, tail), "chunk %d does not start with the tail of chunk %d", i, i-1)
			}

			// Dropping the overlaps rebuilds the text.
			var rebuilt strings.Builder
			for i, c := range chunks {
				r := []rune(c.Text)
				if i > 0 {
					r = r[tc.overlap:]
				}
				rebuilt.WriteString(string(r))
			}
			assert.Equal(t, text, rebuilt.String())
		})
	}
}

func Test_Chunk_TracksPagesAndSource(t *testing.T) {
	chunks := NewRecursiveChunker(20, 5).Chunk(doc("page one text here", "page two text here"))
	require.Len(t, chunks, 3)

	for _, c := range chunks {
		assert.Equal(t, "books/stone.pdf", c.Source)
	}
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[len(chunks)-1].Page)
}

func Test_NewRecursiveChunker_Defaults(t *testing.T) {
	c := NewRecursiveChunker(0, -1)
	assert.Equal(t, DefaultChunkSize, c.size)
	assert.Equal(t, 0, c.overlap)

	c = NewRecursiveChunker(10, 10)
	assert.Equal(t, 5, c.overlap)
}
