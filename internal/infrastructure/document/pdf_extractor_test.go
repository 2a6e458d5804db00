package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"EditaisScanner/internal/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPDFExtractorReadsAllText(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "edital.pdf", buildPDF("Cursos ofertados", "Banco de Dados"))

	text, err := PDFExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Contains(t, strings.ToLower(text), "banco de dados")
	require.Contains(t, text, "Cursos ofertados")
}

func TestPDFExtractorCorruptFileIsParseError(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "broken.pdf", []byte("%PDF-1.4\nthis is not really a pdf"))

	_, err := PDFExtractor{}.Extract(context.Background(), path)
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, path, parseErr.Source)
}

func TestPDFExtractorFormat(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pdf", PDFExtractor{}.Format())
}
