package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"oracle/internal/domain"
)

// FileReader extracts the pages of one kind of file.
type FileReader interface {
	CanRead(path string) bool
	ReadPages(path string) ([]domain.Page, error)
}

// Universal dispatches to the first registered reader that accepts the path.
type Universal struct {
	readers []FileReader
}

// NewUniversal returns a loader for plain text, PDF and the office formats
// handled by docconv.
func NewUniversal() *Universal {
	return &Universal{readers: []FileReader{&TextReader{}, &PDFReader{}, &DocconvReader{}}}
}

// NewUniversalWith returns a loader using only the given readers.
func NewUniversalWith(readers ...FileReader) *Universal {
	return &Universal{readers: readers}
}

// Load reads path into a Document whose identity is path itself.
func (u *Universal) Load(ctx context.Context, path string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return domain.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%s is a directory: %w", path, domain.ErrNotFound)
	}
	for _, r := range u.readers {
		if !r.CanRead(path) {
			continue
		}
		pages, err := r.ReadPages(path)
		if err != nil {
			return domain.Document{}, err
		}
		return domain.Document{Source: path, Pages: pages}, nil
	}
	return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedFormat)
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
