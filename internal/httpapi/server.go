package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookscout/internal/models"
	"bookscout/internal/service"
)

// Searcher is the part of service.CatalogClient the API needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]service.Result, error)
}

type Server struct {
	searcher      Searcher
	log           *zap.Logger
	searchTimeout time.Duration
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func New(searcher Searcher, log *zap.Logger, searchTimeout time.Duration) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		searcher:      searcher,
		log:           log,
		searchTimeout: searchTimeout,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/search", s.handleSearch)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)
		s.log.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
			zap.String("ua", r.UserAgent()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// BookJSON is the wire form of one search result.
type BookJSON struct {
	Title      string       `json:"title"`
	Authors    []string     `json:"authors"`
	Pages      uint         `json:"pages"`
	Series     []SeriesJSON `json:"series"`
	URL        string       `json:"url"`
	CoverImage string       `json:"cover_image,omitempty"`
	Error      string       `json:"error,omitempty"`
}

type SeriesJSON struct {
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}

	ctx := r.Context()
	if s.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.searchTimeout)
		defer cancel()
	}

	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.log.Error("search failed", zap.String("query", query), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, map[string]string{"error": "catalog search failed"})
		return
	}

	out := make([]BookJSON, len(results))
	for i, res := range results {
		out[i] = NewBookJSON(res)
	}
	writeJSON(w, http.StatusOK, out)
}

// NewBookJSON converts a search result to its wire form.
func NewBookJSON(res service.Result) BookJSON {
	b := res.Book
	out := BookJSON{
		Title:      b.Title,
		Authors:    b.Authors,
		Pages:      b.Pages,
		Series:     seriesJSON(b.Series),
		URL:        b.URL,
		CoverImage: b.CoverImage,
	}
	if out.Authors == nil {
		out.Authors = []string{}
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// seriesJSON keeps nil as JSON null so "no series" stays distinct from a list.
func seriesJSON(series []models.SeriesMembership) []SeriesJSON {
	if series == nil {
		return nil
	}
	out := make([]SeriesJSON, len(series))
	for i, s := range series {
		out[i] = SeriesJSON{Name: s.Name, Volume: s.Volume}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
