package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"EditaisScanner/internal/config"
	"EditaisScanner/internal/domain"
)

func newTestDownloader(t *testing.T, client *http.Client, maxBytes int64) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()
	d := NewDownloader(config.DocumentConfig{
		Timeout:  time.Second,
		MaxBytes: maxBytes,
		TempDir:  dir,
	}, "EditaisScanner/test", nil)
	if client != nil {
		d.WithClient(client)
	}
	return d, dir
}

func TestDownloaderFetchWritesTempFileAndCloseRemovesIt(t *testing.T) {
	t.Parallel()

	body := buildPDF("Curso Tecnico em Redes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	d, dir := newTestDownloader(t, server.Client(), 1<<20)
	doc, err := d.Fetch(context.Background(), server.URL+"/edital.pdf")
	require.NoError(t, err)
	require.Equal(t, FormatPDF, doc.Format())
	require.Equal(t, dir, filepath.Dir(doc.Path()))

	onDisk, err := os.ReadFile(doc.Path())
	require.NoError(t, err)
	require.Equal(t, body, onDisk)

	path := doc.Path()
	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())
	_, err = os.Stat(path)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDownloaderNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	d, dir := newTestDownloader(t, server.Client(), 0)
	_, err := d.Fetch(context.Background(), server.URL+"/missing.pdf")

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDownloaderSizeLimitLeavesNothingBehind(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	d, dir := newTestDownloader(t, server.Client(), 1024)
	_, err := d.Fetch(context.Background(), server.URL+"/big.pdf")
	require.ErrorIs(t, err, errTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDownloaderRejectsSelfSignedByDefault(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buildPDF("x"))
	}))
	defer server.Close()

	d, _ := newTestDownloader(t, nil, 0)
	_, err := d.Fetch(context.Background(), server.URL+"/edital.pdf")

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestSniffFormat(t *testing.T) {
	t.Parallel()

	require.Equal(t, FormatPDF, sniffFormat([]byte("%PDF-1.7\n..."), ""))
	require.Equal(t, FormatPDF, sniffFormat([]byte("\r\n%PDF-1.7"), "text/plain"))
	require.Equal(t, FormatPDF, sniffFormat([]byte("garbage"), "application/pdf; qs=0.9"))
	require.Equal(t, FormatUnknown, sniffFormat([]byte("<html></html>"), "text/html"))
	require.Equal(t, FormatUnknown, sniffFormat(nil, ""))
}

func TestPrefixWriterKeepsOnlyHead(t *testing.T) {
	t.Parallel()

	d := &Downloader{}
	head, err := d.copyBody(io.Discard, bytes.NewReader(make([]byte, 2000)))
	require.NoError(t, err)
	require.Len(t, head, sniffLen)
}
