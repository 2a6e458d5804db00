package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"EditaisScanner/internal/config"
	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/infrastructure/web"
	"EditaisScanner/internal/ports"
)

const (
	noticePrefix   = "edital"
	documentMarker = ".pdf"
)

var errRobotsDisallowed = errors.New("disallowed by robots.txt")

// ListingScanner fetches the editais listing page and extracts candidate notices.
type ListingScanner struct {
	listingURL string
	userAgent  string
	client     *http.Client
	robots     *web.RobotsChecker
	logger     *slog.Logger
}

var _ ports.CandidateSource = (*ListingScanner)(nil)

// NewListingScanner wires an HTTP client; a nil client gets a verifying one bounded by cfg.Timeout.
func NewListingScanner(cfg config.SourceConfig, client *http.Client, logger *slog.Logger) *ListingScanner {
	if client == nil {
		client = web.NewClient(cfg.Timeout, false)
	}
	s := &ListingScanner{
		listingURL: cfg.ListingURL,
		userAgent:  cfg.UserAgent,
		client:     client,
		logger:     logger,
	}
	if cfg.RespectRobots {
		s.robots = web.NewRobotsChecker(client, cfg.UserAgent)
	}
	return s
}

// FetchCandidates returns notice-like anchors linking to documents, in document order.
func (s *ListingScanner) FetchCandidates(ctx context.Context) ([]domain.Notice, error) {
	if s.robots != nil {
		allowed, err := s.robots.Allowed(ctx, s.listingURL)
		if err != nil {
			return nil, &domain.FetchError{URL: s.listingURL, Err: err}
		}
		if !allowed {
			return nil, &domain.FetchError{URL: s.listingURL, Err: errRobotsDisallowed}
		}
	}

	doc, err := s.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(s.listingURL)
	notices := extractNotices(doc, base)
	s.debug("listing parsed", "url", s.listingURL, "candidates", len(notices))
	return notices, nil
}

func (s *ListingScanner) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listingURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: s.listingURL, Err: fmt.Errorf("build request: %w", err)}
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: s.listingURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.FetchError{URL: s.listingURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &domain.ParseError{Source: s.listingURL, Err: err}
	}
	return doc, nil
}

func extractNotices(doc *goquery.Document, base *url.URL) []domain.Notice {
	var notices []domain.Notice
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		title := strings.TrimSpace(a.Text())
		if !strings.HasPrefix(strings.ToLower(title), noticePrefix) {
			return
		}
		if !strings.Contains(strings.ToLower(href), documentMarker) {
			return
		}

		notices = append(notices, domain.Notice{
			Title: title,
			Link:  resolveLink(base, href),
		})
	})
	return notices
}

// resolveLink makes href absolute against the listing URL, keeping it verbatim when either side is unparseable.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func (s *ListingScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
