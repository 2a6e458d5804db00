package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"EditaisScanner/internal/config"
	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/infrastructure/web"
	"EditaisScanner/internal/ports"
)

const (
	FormatPDF     = "pdf"
	FormatUnknown = "unknown"

	sniffLen = 512
)

var errTooLarge = errors.New("document exceeds size limit")

// TempDocument is a downloaded file living in a temporary location until Close.
type TempDocument struct {
	path   string
	format string
}

var _ ports.Document = (*TempDocument)(nil)

// Path returns the on-disk location.
func (d *TempDocument) Path() string { return d.path }

// Format returns the sniffed format name.
func (d *TempDocument) Format() string { return d.format }

// Close removes the file. It is safe to call more than once.
func (d *TempDocument) Close() error {
	if d == nil || d.path == "" {
		return nil
	}
	err := os.Remove(d.path)
	d.path = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Downloader fetches notice documents into temporary files.
type Downloader struct {
	client    *http.Client
	limiter   *web.Limiter
	userAgent string
	tempDir   string
	maxBytes  int64
}

var _ ports.DocumentFetcher = (*Downloader)(nil)

// NewDownloader builds a downloader from config. Certificate verification is
// only relaxed when cfg.InsecureTLS is set, and that is logged.
func NewDownloader(cfg config.DocumentConfig, userAgent string, logger *slog.Logger) *Downloader {
	if cfg.InsecureTLS && logger != nil {
		logger.Warn("TLS certificate verification disabled for document downloads",
			"setting", "documents.insecureTLS")
	}
	return &Downloader{
		client:    web.NewClient(cfg.Timeout, cfg.InsecureTLS),
		limiter:   web.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		userAgent: userAgent,
		tempDir:   cfg.TempDir,
		maxBytes:  cfg.MaxBytes,
	}
}

// WithClient swaps the HTTP client, mostly for tests.
func (d *Downloader) WithClient(client *http.Client) *Downloader {
	d.client = client
	return d
}

// Fetch downloads link into a temp file. The caller owns the returned document
// and must Close it; on error nothing is left on disk.
func (d *Downloader) Fetch(ctx context.Context, link string) (ports.Document, error) {
	if err := d.limiter.Wait(ctx, link); err != nil {
		return nil, &domain.FetchError{URL: link, Err: fmt.Errorf("rate limit: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: link, Err: fmt.Errorf("build request: %w", err)}
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: link, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.FetchError{URL: link, StatusCode: resp.StatusCode}
	}

	file, err := os.CreateTemp(d.tempDir, "edital-*.bin")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	doc := &TempDocument{path: file.Name()}

	head, err := d.copyBody(file, resp.Body)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temp file: %w", closeErr)
	}
	if err != nil {
		_ = doc.Close()
		return nil, &domain.FetchError{URL: link, Err: err}
	}

	doc.format = sniffFormat(head, resp.Header.Get("Content-Type"))
	return doc, nil
}

// copyBody streams body into dst and returns its first bytes for sniffing.
func (d *Downloader) copyBody(dst io.Writer, body io.Reader) ([]byte, error) {
	var head bytes.Buffer
	src := body
	if d.maxBytes > 0 {
		src = io.LimitReader(body, d.maxBytes+1)
	}

	headWriter := &prefixWriter{buf: &head, limit: sniffLen}
	n, err := io.Copy(io.MultiWriter(dst, headWriter), src)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if d.maxBytes > 0 && n > d.maxBytes {
		return nil, errTooLarge
	}
	return head.Bytes(), nil
}

type prefixWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	if room := w.limit - w.buf.Len(); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		w.buf.Write(p[:room])
	}
	return len(p), nil
}

func sniffFormat(head []byte, contentType string) string {
	if bytes.HasPrefix(bytes.TrimLeft(head, " \r\n\t"), []byte("%PDF-")) {
		return FormatPDF
	}
	if contentType == "" {
		contentType = http.DetectContentType(head)
	}
	if strings.HasPrefix(strings.ToLower(contentType), "application/pdf") {
		return FormatPDF
	}
	return FormatUnknown
}
