package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClientVerifiesTLSByDefault(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, err := NewClient(time.Second, false).Get(server.URL)
	require.Error(t, err, "self-signed certificate must be rejected")

	resp, err := NewClient(time.Second, true).Get(server.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	transport := NewClient(time.Second, false).Transport.(*http.Transport)
	if transport.TLSClientConfig != nil {
		require.False(t, transport.TLSClientConfig.InsecureSkipVerify)
	}
	insecure := NewClient(time.Second, true).Transport.(*http.Transport)
	require.True(t, insecure.TLSClientConfig.InsecureSkipVerify)
}

func TestLimiterPerHost(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(0.01, 1)
	require.True(t, limiter.allow("https://a.example/x.pdf"))
	require.False(t, limiter.allow("https://a.example/y.pdf"))
	require.True(t, limiter.allow("https://b.example/x.pdf"))

	require.NoError(t, NewLimiter(0, 0).Wait(context.Background(), "https://a.example"))
	var disabled *Limiter
	require.NoError(t, disabled.Wait(context.Background(), "https://a.example"))
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(0.01, 1)
	require.NoError(t, limiter.Wait(context.Background(), "https://a.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, limiter.Wait(ctx, "https://a.example"))
}

func TestRobotsChecker(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "EditaisScanner/1.0")
	ctx := context.Background()

	ok, err := checker.Allowed(ctx, server.URL+"/editais/")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.Allowed(ctx, server.URL+"/private/list")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRobotsCheckerMissingFileAllows(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	ok, err := NewRobotsChecker(server.Client(), "bot").Allowed(context.Background(), server.URL+"/editais/")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestProductToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, "EditaisScanner", productToken("EditaisScanner/1.0 (+https://example.org)"))
	require.Equal(t, "", productToken(""))
}
