package domain

import (
	"fmt"
	"net/http"
)

// FetchError reports a failed retrieval of the listing page or a document.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports HTML parsing or document text extraction failures.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreCorruptError means persisted state exists but cannot be trusted.
type StoreCorruptError struct {
	Location string
	Err      error
}

func (e *StoreCorruptError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("accepted set at %s is corrupt: %v", e.Location, e.Err)
}

func (e *StoreCorruptError) Unwrap() error { return e.Err }

// ClassificationError wraps the fetch or parse failure hit while checking one notice's document.
type ClassificationError struct {
	Link string
	Err  error
}

func (e *ClassificationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("classify %s: %v", e.Link, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
