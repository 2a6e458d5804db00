package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
	"EditaisScanner/internal/textnorm"
)

// Verdict is the classification result for one notice.
type Verdict struct {
	Outcome domain.Outcome
	// Phrase is the keyword that matched, when accepted.
	Phrase string
	Err    error
}

// DocumentReader turns a downloaded document into plain text.
type DocumentReader interface {
	Extract(ctx context.Context, doc ports.Document) (string, error)
}

// ClassifierDeps wires the document fallback collaborators.
type ClassifierDeps struct {
	Keywords []string
	Fetcher  ports.DocumentFetcher
	Reader   DocumentReader
	// RejectionTTL > 0 remembers document rejections for that long.
	RejectionTTL time.Duration
	Logger       *slog.Logger
}

// Classifier decides TI relevance: title first, then the linked document.
type Classifier struct {
	keywords []string
	fetcher  ports.DocumentFetcher
	reader   DocumentReader
	rejected *gocache.Cache
	logger   *slog.Logger
}

// NewClassifier normalizes the keyword list once, preserving its order.
func NewClassifier(deps ClassifierDeps) *Classifier {
	c := &Classifier{
		keywords: textnorm.NormalizeAll(deps.Keywords),
		fetcher:  deps.Fetcher,
		reader:   deps.Reader,
		logger:   deps.Logger,
	}
	if deps.RejectionTTL > 0 {
		c.rejected = gocache.New(deps.RejectionTTL, deps.RejectionTTL)
	}
	return c
}

// Classify never returns an error: document failures come back as OutcomeError
// carrying a *domain.ClassificationError.
func (c *Classifier) Classify(ctx context.Context, notice domain.Notice) Verdict {
	if phrase, ok := textnorm.ContainsAny(textnorm.Normalize(notice.Title), c.keywords); ok {
		return Verdict{Outcome: domain.OutcomeAcceptedByTitle, Phrase: phrase}
	}

	if c.rejected != nil {
		if _, seen := c.rejected.Get(notice.Link); seen {
			c.debug("document rejection remembered", "link", notice.Link)
			return Verdict{Outcome: domain.OutcomeRejectedByDocument}
		}
	}

	text, err := c.documentText(ctx, notice.Link)
	if err != nil {
		return Verdict{
			Outcome: domain.OutcomeError,
			Err:     &domain.ClassificationError{Link: notice.Link, Err: err},
		}
	}

	if phrase, ok := textnorm.ContainsAny(textnorm.Normalize(text), c.keywords); ok {
		return Verdict{Outcome: domain.OutcomeAcceptedByDocument, Phrase: phrase}
	}

	if c.rejected != nil {
		c.rejected.SetDefault(notice.Link, struct{}{})
	}
	return Verdict{Outcome: domain.OutcomeRejectedByDocument}
}

// documentText downloads and reads the document; the temporary copy is
// released on every path.
func (c *Classifier) documentText(ctx context.Context, link string) (text string, err error) {
	if c.fetcher == nil || c.reader == nil {
		return "", errors.New("document fallback is not configured")
	}

	doc, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil {
			c.warn("release document", "link", link, "error", closeErr)
		}
	}()

	text, err = c.reader.Extract(ctx, doc)
	if err != nil {
		var parseErr *domain.ParseError
		if !errors.As(err, &parseErr) {
			err = &domain.ParseError{Source: link, Err: err}
		}
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
