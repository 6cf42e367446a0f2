package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/common/log"
)

const maxBodyBytes = 8 << 20

// HTTPTransport serves POST /v1/evaluate, GET /v1/domains/stats and GET /healthz.
type HTTPTransport struct {
	addr   string
	eval   PageEvaluator
	stats  StatsProvider
	logger log.Logger

	mu       sync.Mutex
	running  bool
	listener net.Listener
	server   *http.Server
}

func NewHTTPTransport(addr string, eval PageEvaluator, stats StatsProvider, logger log.Logger) *HTTPTransport {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &HTTPTransport{addr: addr, eval: eval, stats: stats, logger: logger}
}

// Router builds the chi router. It is exported for httptest.
func (t *HTTPTransport) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(t.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/evaluate", t.handleEvaluate)
		r.Get("/domains/stats", t.handleStats)
	})
	return r
}

func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("http transport already running")
	}
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.addr, err)
	}
	t.listener = ln
	t.server = &http.Server{
		Handler:           t.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	t.running = true

	t.logger.Info(map[string]any{"transport": "http", "address": ln.Addr().String()}, "HTTP transport started")

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error(map[string]any{"error": err}, "HTTP transport serve failed")
		}
	}(t.server)
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	return nil
}

func (t *HTTPTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := t.server.Shutdown(ctx)
	if err != nil {
		t.logger.Warn(map[string]any{"error": err}, "Error shutting down HTTP transport")
	}
	t.running = false
	t.logger.Info(map[string]any{"transport": "http", "address": t.listener.Addr().String()}, "HTTP transport stopped")
	return err
}

func (t *HTTPTransport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

type frameRequest struct {
	URL   string `json:"url"`
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

type evaluateRequest struct {
	URL    string         `json:"url"`
	HTML   string         `json:"html"`
	Frames []frameRequest `json:"frames"`
}

func (t *HTTPTransport) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	doc, err := buildDocument(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t.eval.Evaluate(r.Context(), doc))
}

func (t *HTTPTransport) handleStats(w http.ResponseWriter, _ *http.Request) {
	if t.stats == nil {
		writeError(w, http.StatusNotFound, "domain list not configured")
		return
	}
	writeJSON(w, http.StatusOK, t.stats.Stats())
}

// buildDocument parses the page and its frames. A frame that fails to parse
// or was reported with an error becomes a Frame with Err set.
func buildDocument(req evaluateRequest) (*dom.Document, error) {
	doc, err := dom.ParseString(req.URL, req.HTML)
	if err != nil {
		return nil, err
	}
	for _, f := range req.Frames {
		frame := dom.Frame{URL: f.URL}
		switch {
		case f.Error != "":
			frame.Err = errors.New(f.Error)
		default:
			frame.Doc, frame.Err = dom.ParseString(f.URL, f.HTML)
		}
		doc.Frames = append(doc.Frames, frame)
	}
	return doc, nil
}

func (t *HTTPTransport) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		t.logger.Debug(map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}, "http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
