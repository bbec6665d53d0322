// Package server exposes the conversion pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/convert?scale=N[&refresh=1]   body: bitmap bytes → image/svg+xml
//	GET  /healthz                          → {"status":"ok","build":{...}}
//
// Failures are returned as JSON:
//
//	{"code":"DECODE_ERROR","message":"decode image: ...","request_id":"..."}
//
// Every response carries an X-Request-ID header. A client-supplied
// X-Request-ID is echoed back; otherwise a random UUID is assigned.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/pxsvg/pkg/buildinfo"
	"github.com/matzehuels/pxsvg/pkg/errors"
	"github.com/matzehuels/pxsvg/pkg/pipeline"
)

// HeaderRequestID is the request correlation header.
const HeaderRequestID = "X-Request-ID"

// Response headers describing a conversion.
const (
	HeaderRects      = "X-Pxsvg-Rects"
	HeaderCache      = "X-Pxsvg-Cache"
	HeaderSourceHash = "X-Pxsvg-Source-Hash"
)

const (
	defaultMaxBody  = 4 << 20
	shutdownTimeout = 10 * time.Second
)

// Converter converts bitmap bytes. *pipeline.Runner implements it.
type Converter interface {
	Convert(ctx context.Context, data []byte, opts pipeline.Options) (*pipeline.Result, error)
}

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxBody bounds the request body in bytes. Zero means 4 MiB.
	MaxBody int64

	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	conv    Converter
	cfg     Config
	logger  *log.Logger
	handler http.Handler
}

// New creates a server backed by conv.
func New(conv Converter, cfg Config) *Server {
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = defaultMaxBody
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{conv: conv, cfg: cfg, logger: logger}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, errors.New(errors.ErrCodeInvalidInput, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, errors.New(errors.ErrCodeInvalidInput, "method %s not allowed on %s", r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.Options{
		Source: requestIDFrom(r.Context()),
		Logger: s.logger,
	}
	if v := r.URL.Query().Get("scale"); v != "" {
		scale, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidScale, "scale must be an integer, got %q", v))
			return
		}
		if err := errors.ValidateScale(scale); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		opts.Scale = scale
	}
	if v := r.URL.Query().Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "refresh must be a boolean, got %q", v))
			return
		}
		opts.Refresh = refresh
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge,
				errors.New(errors.ErrCodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(data) == 0 {
		writeError(w, r, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "request body is empty"))
		return
	}

	res, err := s.conv.Convert(r.Context(), data, opts)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	cache := "miss"
	if res.CacheHit {
		cache = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", "image/svg+xml")
	h.Set("Content-Length", strconv.Itoa(len(res.SVG)))
	h.Set(HeaderRects, strconv.Itoa(res.Rects))
	h.Set(HeaderCache, cache)
	h.Set(HeaderSourceHash, res.SourceHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.SVG)
}

// =============================================================================
// Errors
// =============================================================================

type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScale, errors.ErrCodeDecode:
		return http.StatusBadRequest
	case errors.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   errors.UserMessage(err),
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Middleware
// =============================================================================

type ctxKey int

const requestIDKey ctxKey = 0

// requestID tags every request with an ID, reusing a client-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", requestIDFrom(r.Context()),
			"remote", r.RemoteAddr)
	})
}
