package router

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// RouteMiddleware wraps the handler of one registered route. route is the
// path template, e.g. "/api/v1/sessions/{id}".
type RouteMiddleware func(route string, next http.Handler) http.Handler

type Option func(*Router)

// WithRouteMiddleware applies mw to every route registered afterwards.
func WithRouteMiddleware(mw RouteMiddleware) Option {
	return func(r *Router) { r.middleware = append(r.middleware, mw) }
}

// WithCORS allows cross-origin requests from origins ("*" for any).
func WithCORS(origins ...string) Option {
	return func(r *Router) { r.corsOrigins = origins }
}

type Router struct {
	mux         *mux.Router
	logger      *slog.Logger
	middleware  []RouteMiddleware
	corsOrigins []string
	routes      map[string]bool // key = METHOD:PATH
}

func New(logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		mux:    mux.NewRouter(),
		logger: logger,
		routes: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.mux.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	r.mux.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// Vars returns the path variables of the matched route.
func Vars(req *http.Request) map[string]string {
	return mux.Vars(req)
}

func (r *Router) wrap(route string, h http.Handler) http.Handler {
	for i := len(r.middleware) - 1; i >= 0; i-- {
		h = r.middleware[i](route, h)
	}
	return h
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	r.routes[method+":"+path] = true
	r.mux.Handle(path, r.wrap(path, http.HandlerFunc(handler))).Methods(method)
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Prefix serves every path below prefix with h, whatever the method.
func (r *Router) Prefix(prefix string, h http.Handler) {
	r.routes["*:"+prefix] = true
	r.mux.PathPrefix(prefix).Handler(r.wrap(prefix, h))
}

// Routes lists the registered METHOD:PATH keys in sorted order.
func (r *Router) Routes() []string {
	keys := make([]string, 0, len(r.routes))
	for k := range r.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Handler returns the full middleware chain: request log, panic recovery,
// CORS, then routing.
func (r *Router) Handler() http.Handler {
	var h http.Handler = r.mux
	if len(r.corsOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(r.corsOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{r.logger}))(h)
	return r.logRequests(h)
}

// --- Start server ---

// Start serves until ctx is cancelled, then shuts down gracefully.
func (r *Router) Start(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("🚀 server started", "url", "http://localhost"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	r.logger.Info("🛑 shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, req)

		r.logger.Log(req.Context(), statusLevel(lrw.statusCode), "request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", lrw.statusCode,
			"duration", time.Since(start),
		)
	})
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter { return lrw.ResponseWriter }

// --- Level helpers ---
func statusLevel(code int) slog.Level {
	switch {
	case code >= 500:
		return slog.LevelError
	case code >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("💥 panic recovered", "err", fmt.Sprint(v...))
}
