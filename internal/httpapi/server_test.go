package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/infrastructure/storage"
	"EditaisScanner/internal/logging"
)

type stubSearcher struct {
	notices []domain.Notice
	err     error
	calls   int
}

func (s *stubSearcher) TriggerSearch(context.Context) ([]domain.Notice, error) {
	s.calls++
	return s.notices, s.err
}

func newTestRouter(t *testing.T, searcher Searcher) (http.Handler, *storage.JSONStore) {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "state.json"))
	return NewRouter(Deps{Searcher: searcher, Store: store}), store
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &stubSearcher{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearchReturnsDelta(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{notices: []domain.Notice{{Title: "EDITAL 01 - CABO", Link: "https://x/1.pdf"}}}
	router, _ := newTestRouter(t, searcher)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"notices":[{"title":"EDITAL 01 - CABO","link":"https://x/1.pdf"}]}`, rec.Body.String())
	require.Equal(t, 1, searcher.calls)
}

func TestSearchEmptyAndFailure(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &stubSearcher{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", nil))
	require.JSONEq(t, `{"notices":[]}`, rec.Body.String())

	failing, _ := newTestRouter(t, &stubSearcher{err: &domain.FetchError{URL: "https://senai", StatusCode: 503}})
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Error, "503")
}

func TestSearchRejectsGet(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &stubSearcher{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNoticesListsAcceptedSet(t *testing.T) {
	t.Parallel()

	router, store := newTestRouter(t, &stubSearcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"notices":[]}`, rec.Body.String())

	notice := domain.Notice{Title: "EDITAL 05 - CABO", Link: "https://x/5.pdf"}
	require.NoError(t, store.Save(context.Background(), domain.NewAcceptedSet(notice)))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notices", nil))
	require.JSONEq(t, `{"notices":[{"title":"EDITAL 05 - CABO","link":"https://x/5.pdf"}]}`, rec.Body.String())
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), logging.Discard())
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected serve error: %v", err)
	}
}
