package ports

import (
	"context"
	"time"

	"EditaisScanner/internal/domain"
)

// CandidateSource pulls candidate notices from the listing page.
type CandidateSource interface {
	FetchCandidates(ctx context.Context) ([]domain.Notice, error)
}

// NoticeStore persists the accepted set; it is read once and written once per run.
type NoticeStore interface {
	Load(ctx context.Context) (*domain.AcceptedSet, error)
	Save(ctx context.Context, set *domain.AcceptedSet) error
}

// Document is a downloaded file that must be released once read.
type Document interface {
	Path() string
	Format() string
	Close() error
}

// DocumentFetcher downloads a notice's linked file to a transient location.
type DocumentFetcher interface {
	Fetch(ctx context.Context, link string) (Document, error)
}

// TextExtractor pulls the plain text out of every page of a document.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// NoticeSink receives newly accepted notices (Telegram chat, Kafka topic...).
type NoticeSink interface {
	Deliver(ctx context.Context, notices []domain.Notice) error
}

// Scheduler runs keyed jobs on a fixed interval.
type Scheduler interface {
	Schedule(ctx context.Context, key string, interval, firstDelay time.Duration, job func(time.Time)) error
	Cancel(key string) bool
	Stop(ctx context.Context) error
}
