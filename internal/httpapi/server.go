package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

const shutdownTimeout = 10 * time.Second

// Searcher runs one guarded pipeline run.
type Searcher interface {
	TriggerSearch(ctx context.Context) ([]domain.Notice, error)
}

// Deps wires the API to the application.
type Deps struct {
	Searcher Searcher
	Store    ports.NoticeStore
	Logger   *slog.Logger
}

type server struct {
	searcher Searcher
	store    ports.NoticeStore
	log      *slog.Logger
}

type noticesResponse struct {
	Notices []domain.Notice `json:"notices"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter exposes health, search trigger and the accepted set.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &server{searcher: deps.Searcher, store: deps.Store, log: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Post("/search", srv.handleSearch)
	r.Get("/notices", srv.handleNotices)
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// a search downloads documents and may take minutes
		WriteTimeout: 10 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("api server stopped")
	return nil
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	notices, err := s.searcher.TriggerSearch(r.Context())
	if err != nil {
		s.log.Error("search failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	if notices == nil {
		notices = []domain.Notice{}
	}
	writeJSON(w, http.StatusOK, noticesResponse{Notices: notices})
}

func (s *server) handleNotices(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.Load(r.Context())
	if err != nil {
		s.log.Error("load accepted set", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, noticesResponse{Notices: set.Notices()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
