package loader

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"oracle/internal/domain"
)

// PDFReader extracts the plain text of every PDF page.
type PDFReader struct{}

func (r *PDFReader) CanRead(path string) bool {
	return hasExt(path, ".pdf")
}

func (r *PDFReader) ReadPages(path string) ([]domain.Page, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf document: %w", err)
	}
	defer f.Close()

	total := rdr.NumPage()
	pages := make([]domain.Page, 0, total)
	for i := 1; i <= total; i++ {
		p := rdr.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}
	return pages, nil
}
