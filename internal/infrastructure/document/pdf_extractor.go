package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/extract"
)

// PDFExtractor reads the plain text of every page of a PDF file.
type PDFExtractor struct{}

var _ extract.Extractor = PDFExtractor{}

// Format identifies the extractor inside the registry.
func (PDFExtractor) Format() string { return FormatPDF }

// Extract concatenates the text of all pages. Malformed files surface as *domain.ParseError.
func (PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	// the pdf library panics on some corrupt xref tables
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &domain.ParseError{Source: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &domain.ParseError{Source: path, Err: err}
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", &domain.ParseError{Source: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		b.WriteString(content)
	}
	return b.String(), nil
}
