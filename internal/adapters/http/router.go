package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gcite/gcite-backend/internal/core/domain"
	"github.com/gcite/gcite-backend/internal/core/ports"
	"github.com/gcite/gcite-backend/internal/observability/metrics"
)

const (
	serviceName    = "gCite API"
	serviceVersion = "0.1.0"
)

// Options carries the transport knobs the router needs; bootstrap maps the
// application config onto it.
type Options struct {
	MetricsService   string
	CORSOrigins      []string
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	svc     ports.CitationSearchService
	metrics *metrics.HTTPServerMetrics
	opts    Options
}

func NewRouter(svc ports.CitationSearchService, m *metrics.HTTPServerMetrics, opts Options) *Router {
	return &Router{
		svc:     svc,
		metrics: m,
		opts:    opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.root)
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/api/search", rt.search)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.MetricsService, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(rt.opts.CORSOrigins, handler)
	return handler
}

func (rt *Router) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": serviceName,
		"version": serviceVersion,
		"status":  "operational",
	})
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": float64(time.Now().UnixNano()) / 1e9,
	})
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "invalid json"})
		return
	}

	req := body.toDomain()
	if err := req.Validate(); err != nil {
		rt.writeError(w, err)
		return
	}

	start := time.Now()
	result, err := rt.svc.Search(r.Context(), req)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	elapsed := time.Since(start)

	if rt.metrics != nil {
		rt.metrics.RecordSearch(rt.opts.MetricsService, string(result.Outcome), len(result.Chunks), elapsed)
	}

	chunks := result.Chunks
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	writeJSON(w, http.StatusOK, searchResponseBody{
		Query:            result.Query,
		ResultsCount:     len(chunks),
		Chunks:           chunks,
		FormattedOutput:  result.FormattedOutput,
		ProcessingTimeMS: elapsed.Milliseconds(),
	})
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
