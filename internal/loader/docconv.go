package loader

import (
	"fmt"

	"code.sajari.com/docconv/v2"

	"oracle/internal/domain"
)

// DocconvReader converts office and markup documents into a single page of text.
type DocconvReader struct{}

func (r *DocconvReader) CanRead(path string) bool {
	return hasExt(path, ".docx", ".odt", ".rtf", ".html", ".htm", ".xml")
}

func (r *DocconvReader) ReadPages(path string) ([]domain.Page, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return []domain.Page{{Number: 1, Text: res.Body}}, nil
}
