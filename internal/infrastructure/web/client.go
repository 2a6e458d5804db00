package web

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

const maxRedirects = 5

// NewClient returns an HTTP client bounded by timeout. TLS certificates are
// verified unless insecure is set; callers must log that choice.
func NewClient(timeout time.Duration, insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in via documents.insecureTLS
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
