package chunker

import (
	"strings"

	"oracle/internal/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150

	pageSeparator = "\n\n"
)

// Break levels, strongest first: paragraph, line, sentence, word.
var defaultBreaks = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "! ", "? ", ".\n", "!\n", "?\n"},
	{" ", "\t"},
}

// RecursiveChunker splits documents into overlapping windows of at most size
// characters. Each window ends at the strongest natural break found in its second
// half, or is cut hard at size when there is none. Consecutive chunks share
// exactly overlap characters.
type RecursiveChunker struct {
	size    int
	overlap int
	breaks  [][][]rune
}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	breaks := make([][][]rune, len(defaultBreaks))
	for i, level := range defaultBreaks {
		for _, sep := range level {
			breaks[i] = append(breaks[i], []rune(sep))
		}
	}
	return &RecursiveChunker{size: size, overlap: overlap, breaks: breaks}
}

// Chunk splits the document pages, joined by a blank line, into chunks. A
// document without any text yields no chunks.
func (c *RecursiveChunker) Chunk(document domain.Document) []domain.Chunk {
	text, offsets := joinPages(document.Pages)
	if strings.TrimSpace(string(text)) == "" {
		return nil
	}
	var chunks []domain.Chunk
	start := 0
	for {
		end := min(start+c.size, len(text))
		if end < len(text) {
			end = c.cut(text, start, end)
		}
		chunks = append(chunks, domain.Chunk{
			Source: document.Source,
			Page:   pageAt(document.Pages, offsets, start),
			Index:  len(chunks),
			Text:   string(text[start:end]),
		})
		if end >= len(text) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// cut finds the end of the window text[start:end]. Candidates must leave the
// next window starting after start and keep the chunk at least half full.
func (c *RecursiveChunker) cut(text []rune, start, end int) int {
	lo := max(start+c.overlap+1, start+c.size/2)
	for _, level := range c.breaks {
		for pos := end; pos >= lo; pos-- {
			for _, sep := range level {
				if pos-len(sep) >= start && hasSuffixAt(text, pos, sep) {
					return pos
				}
			}
		}
	}
	return end
}

func hasSuffixAt(text []rune, pos int, sep []rune) bool {
	for i := range sep {
		if text[pos-len(sep)+i] != sep[i] {
			return false
		}
	}
	return true
}

func joinPages(pages []domain.Page) ([]rune, []int) {
	var text []rune
	offsets := make([]int, len(pages))
	for i, p := range pages {
		if i > 0 {
			text = append(text, []rune(pageSeparator)...)
		}
		offsets[i] = len(text)
		text = append(text, []rune(p.Text)...)
	}
	return text, offsets
}

func pageAt(pages []domain.Page, offsets []int, pos int) int {
	page := 0
	for i, off := range offsets {
		if off > pos {
			break
		}
		page = pages[i].Number
	}
	return page
}
