package loader

import (
	"fmt"
	"os"
	"strings"

	"oracle/internal/domain"
)

// TextReader reads plain text files. Form feeds separate pages.
type TextReader struct{}

func (r *TextReader) CanRead(path string) bool {
	return hasExt(path, ".txt", ".md")
}

func (r *TextReader) ReadPages(path string) ([]domain.Page, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	parts := strings.Split(string(buf), "\f")
	pages := make([]domain.Page, 0, len(parts))
	for i, p := range parts {
		pages = append(pages, domain.Page{Number: i + 1, Text: p})
	}
	return pages, nil
}
