package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/miradorstack/mirador-clusterview/internal/feed"
	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/projection"
	"github.com/miradorstack/mirador-clusterview/internal/store"
	"github.com/miradorstack/mirador-clusterview/internal/utils"
)

const maxSnapshotBytes = 1 << 20

// Views is the projection surface served over HTTP.
type Views interface {
	Dashboard() projection.Dashboard
	Metrics() projection.MetricsView
	Alerts() []projection.AlertView
	Compliance() projection.ComplianceView
	History() projection.DualAxisChart
}

// Ingester accepts replacement snapshots from the telemetry feed.
type Ingester interface {
	Ingest(models.Snapshot) error
}

// Router serves the JSON dashboard API.
type Router struct {
	logger   *slog.Logger
	views    Views
	ingester Ingester
	stream   http.Handler
	ready    func() bool
	onIngest []func()
	mux      *http.ServeMux
}

// RouterOption customises a Router.
type RouterOption func(*Router)

// WithStream mounts a live update handler at /api/v1/ws.
func WithStream(h http.Handler) RouterOption {
	return func(r *Router) { r.stream = h }
}

// WithReadiness reports whether /healthz should answer 200.
func WithReadiness(ready func() bool) RouterOption {
	return func(r *Router) { r.ready = ready }
}

// WithIngestHook runs fn after every accepted snapshot.
func WithIngestHook(fn func()) RouterOption {
	return func(r *Router) {
		if fn != nil {
			r.onIngest = append(r.onIngest, fn)
		}
	}
}

// NewRouter wires the HTTP routes. A nil ingester disables POST /api/v1/snapshot.
func NewRouter(logger *slog.Logger, views Views, ingester Ingester, opts ...RouterOption) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		logger:   logger,
		views:    views,
		ingester: ingester,
		ready:    func() bool { return true },
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.mux.HandleFunc("GET /healthz", r.handleHealth)
	r.mux.HandleFunc("GET /api/v1/dashboard", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, r.views.Dashboard())
	})
	r.mux.HandleFunc("GET /api/v1/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, r.views.Metrics())
	})
	r.mux.HandleFunc("GET /api/v1/alerts", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, r.views.Alerts())
	})
	r.mux.HandleFunc("GET /api/v1/compliance", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, r.views.Compliance())
	})
	r.mux.HandleFunc("GET /api/v1/history", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, r.views.History())
	})
	if r.ingester != nil {
		r.mux.HandleFunc("POST /api/v1/snapshot", r.handleSnapshot)
	}
	if r.stream != nil {
		r.mux.Handle("GET /api/v1/ws", r.stream)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !r.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "serving"})
}

func (r *Router) handleSnapshot(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxSnapshotBytes))
	if err != nil {
		code := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		writeError(w, code, err)
		return
	}
	snap, err := feed.Parse(body)
	if err != nil {
		code := http.StatusInternalServerError
		if utils.KindOf(err) == utils.KindInvalid {
			code = http.StatusBadRequest
		}
		writeError(w, code, err)
		return
	}
	if err := r.ingester.Ingest(snap); err != nil {
		if errors.Is(err, store.ErrMalformedSnapshot) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		r.logger.Error("snapshot ingest failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, fn := range r.onIngest {
		fn()
	}
	writeJSON(w, http.StatusOK, r.views.Dashboard())
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
