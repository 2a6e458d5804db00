package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"EditaisScanner/internal/ports"
)

// Extractor is a format-specific text extraction strategy (pdf, ...).
type Extractor interface {
	ports.TextExtractor
	Format() string
}

// Registry keeps a mapping from document formats to their extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry holding the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: map[string]Extractor{}}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds or replaces an extractor implementation.
func (r *Registry) Register(extractor Extractor) {
	if r.extractors == nil {
		r.extractors = map[string]Extractor{}
	}
	r.extractors[extractor.Format()] = extractor
}

// Resolve returns the extractor for format or an error if it is absent.
func (r *Registry) Resolve(format string) (Extractor, error) {
	if extractor, ok := r.extractors[format]; ok {
		return extractor, nil
	}
	return nil, fmt.Errorf("unsupported document format %q (registered: %s)", format, strings.Join(r.Formats(), ", "))
}

// Formats lists registered formats, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.extractors))
	for f := range r.extractors {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Extract resolves the extractor for doc's format and runs it.
func (r *Registry) Extract(ctx context.Context, doc ports.Document) (string, error) {
	extractor, err := r.Resolve(doc.Format())
	if err != nil {
		return "", err
	}
	return extractor.Extract(ctx, doc.Path())
}
