package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/reqcheck/internal/pysrc"
	"github.com/matzehuels/reqcheck/pkg/buildinfo"
	"github.com/matzehuels/reqcheck/pkg/cache"
	"github.com/matzehuels/reqcheck/pkg/checker"
	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/httputil"
	"github.com/matzehuels/reqcheck/pkg/observability"
)

// DefaultImportCacheSize is the number of parsed sources kept in memory.
const DefaultImportCacheSize = 1024

const importsOp = "imports"

// Options configure a Server.
type Options struct {
	Engine *checker.Engine
	Logger *log.Logger

	// Registry receives the service metrics. Nil creates a private one.
	Registry *prometheus.Registry

	// ImportCacheSize bounds the parsed-import LRU. Zero means
	// DefaultImportCacheSize.
	ImportCacheSize int
}

// Server serves one engine over HTTP.
type Server struct {
	engine   *checker.Engine
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	imports  *lru.Cache[string, []pysrc.ImportRecord]
	router   chi.Router
}

// CheckRequest is the body of POST /v1/check.
type CheckRequest struct {
	// Filename is relative to the project root.
	Filename string `json:"filename"`
	Source   string `json:"source"`
}

// CheckResponse is the reply of POST /v1/check.
type CheckResponse struct {
	Filename string            `json:"filename"`
	Findings []checker.Finding `json:"findings"`
}

// New builds a Server and installs its metrics as the process-wide
// observability hooks.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server needs an engine")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.ImportCacheSize <= 0 {
		opts.ImportCacheSize = DefaultImportCacheSize
	}
	imports, err := lru.New[string, []pysrc.ImportRecord](opts.ImportCacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "import cache")
	}

	s := &Server{
		engine:   opts.Engine,
		logger:   opts.Logger,
		registry: opts.Registry,
		metrics:  NewMetrics(opts.Registry),
		imports:  imports,
	}
	s.metrics.Install()
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Reset drops the engine's project state. Parsed imports stay cached since
// they depend only on source text.
func (s *Server) Reset(reason string) {
	s.engine.Reset()
	s.logger.Info("project state reset", "reason", reason)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.handleCheck)
		r.Get("/requirements", s.handleRequirements)
		r.Post("/reset", s.handleReset)
	})
	return r
}

// instrument fires the HTTP hooks with the matched route pattern and logs
// each request at debug level.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Short(),
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := errors.ValidatePath(req.Filename); err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := s.parse(r.Context(), req.Filename, []byte(req.Source))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	path := filepath.Join(s.engine.RootDir(), filepath.FromSlash(req.Filename))
	findings, err := s.engine.CheckImports(r.Context(), path, records)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := CheckResponse{Filename: req.Filename, Findings: make([]checker.Finding, 0, len(findings))}
	for _, f := range findings {
		f.Filename = req.Filename
		resp.Findings = append(resp.Findings, f)
	}
	_ = httputil.WriteJSON(w, http.StatusOK, resp)
}

// parse returns the imports of src, from the LRU when the same text was
// seen before.
func (s *Server) parse(ctx context.Context, filename string, src []byte) ([]pysrc.ImportRecord, error) {
	key := cache.Hash(src)
	if records, ok := s.imports.Get(key); ok {
		observability.Cache().OnCacheHit(ctx, importsOp)
		return records, nil
	}
	observability.Cache().OnCacheMiss(ctx, importsOp)

	records, err := pysrc.Imports(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", filename)
	}
	s.imports.Add(key, records)
	observability.Cache().OnCacheSet(ctx, importsOp, len(src))
	return records, nil
}

func (s *Server) handleRequirements(w http.ResponseWriter, r *http.Request) {
	setupPy := r.URL.Query().Get("setup_py") == "true"
	summary, err := s.engine.Summary(r.Context(), setupPy)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	_ = httputil.WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.Reset("api")
	w.WriteHeader(http.StatusNoContent)
}

// ShutdownTimeout bounds the graceful shutdown of [Server.ListenAndServe].
const ShutdownTimeout = 5 * time.Second

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "root", s.engine.RootDir())
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return hs.Shutdown(shutdownCtx)
	}
}
