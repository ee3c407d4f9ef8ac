package streaminghttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/smartmcp/appserver-mcp/auth"
	"github.com/smartmcp/appserver-mcp/internal/logctx"
	"github.com/smartmcp/appserver-mcp/internal/wellknown"
	"go.opentelemetry.io/otel/metric"
)

var (
	_ http.Handler = (*StreamingHTTPHandler)(nil)
)

var ErrAuthenticatorRequired = errors.New("an authenticator is required when Oidc authentication is enabled")

var jsonMediaType = contenttype.NewMediaType("application/json")

const (
	requestIDHeader = "X-Request-Id"
	healthPath      = "/healthz"
	metricsPath     = "/metrics"
)

// writeJSONError emits a minimal JSON body for HTTP-layer rejections before a
// JSON-RPC exchange is possible. Shape: {"error":{"code":<httpStatus>,"message":"<reason>"}}
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// Option configures the StreamingHTTPHandler.
type Option func(*newConfig)

type newConfig struct {
	logger        *slog.Logger
	authenticator auth.Authenticator
	metrics       http.Handler
	meter         metric.Meter
}

// WithLogger sets the logger used by the handler, the Gate and the
// authentication middleware. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *newConfig) { c.logger = l }
}

// WithAuthenticator sets the token validator. It is required when
// authentication is enabled in Oidc mode and ignored otherwise.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *newConfig) { c.authenticator = a }
}

// WithMetricsHandler mounts h at GET /metrics, outside the Gate.
func WithMetricsHandler(h http.Handler) Option {
	return func(c *newConfig) { c.metrics = h }
}

// WithMeter sets the meter used for gate decision counters.
func WithMeter(m metric.Meter) Option {
	return func(c *newConfig) { c.meter = m }
}

// StreamingHTTPHandler serves the MCP streamable HTTP endpoint behind the
// authentication Gate, together with the discovery documents and a liveness
// probe.
type StreamingHTTPHandler struct {
	mux       *http.ServeMux
	log       *slog.Logger
	serverURL *url.URL
}

// New constructs a StreamingHTTPHandler.
//
// Required:
//   - publicEndpoint: externally visible URL of the MCP endpoint; its path is
//     the MCP route
//   - opts: the authentication options snapshot
//   - servers: builds the MCP server for a request that passed the Gate
//
// Requests other than the liveness probe and the metrics endpoint pass
// through auth.Authenticate (enabled Oidc mode only) and the auth.Gate before
// reaching the discovery documents or the MCP route.
func New(publicEndpoint string, opts auth.Options, servers func(*http.Request) *mcp.Server, options ...Option) (*StreamingHTTPHandler, error) {
	if servers == nil {
		return nil, fmt.Errorf("server factory is required")
	}

	mcpURL, err := url.Parse(publicEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", publicEndpoint, err)
	}
	if mcpURL.Scheme != "https" && mcpURL.Scheme != "http" {
		return nil, fmt.Errorf("server URL must use HTTP or HTTPS scheme, got %q", mcpURL.Scheme)
	}

	cfg := &newConfig{logger: slog.Default()}
	for _, opt := range options {
		opt(cfg)
	}

	opts = opts.Copy()
	if opts.RequiresToken() && cfg.authenticator == nil {
		return nil, ErrAuthenticatorRequired
	}

	log := cfg.logger
	if _, ok := log.Handler().(logctx.Handler); !ok {
		log = slog.New(logctx.Handler{Handler: log.Handler()})
	}

	h := &StreamingHTTPHandler{log: log, serverURL: mcpURL}

	responder, err := wellknown.NewResponder(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to render discovery documents: %w", err)
	}

	sdkHandler := mcp.NewStreamableHTTPHandler(servers, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
	})

	inner := http.NewServeMux()
	responder.Register(inner)
	inner.Handle(pathOnly(mcpURL), h.handleMCP(sdkHandler))

	authOpts := []auth.Option{auth.WithLogger(log)}
	if cfg.meter != nil {
		authOpts = append(authOpts, auth.WithMeter(cfg.meter))
	}
	var protected http.Handler = auth.NewGate(opts, authOpts...).Wrap(inner)
	if opts.RequiresToken() {
		protected = auth.Authenticate(cfg.authenticator, authOpts...)(protected)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, handleLiveness)
	if cfg.metrics != nil {
		mux.Handle("GET "+metricsPath, cfg.metrics)
	}
	mux.Handle("/", protected)
	h.mux = mux
	return h, nil
}

// pathOnly returns just the URL path or "/" if empty.
func pathOnly(u *url.URL) string {
	if u == nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

func (h *StreamingHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  reqID,
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})
	w.Header().Set(requestIDHeader, reqID)

	sw := &statusWriter{ResponseWriter: w}
	h.log.DebugContext(ctx, "http.request.start")
	h.mux.ServeHTTP(sw, r.WithContext(ctx))
	h.log.InfoContext(ctx, "http.request.done", slog.Int("status", sw.statusCode()), slog.Duration("dur", time.Since(start)))
}

// handleMCP enforces the JSON content type on POST and hands the request to
// the MCP transport.
func (h *StreamingHTTPHandler) handleMCP(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ctype, err := contenttype.GetMediaType(r)
			if err != nil || !ctype.Matches(jsonMediaType) {
				writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
				h.log.WarnContext(r.Context(), "content_type.unsupported")
				return
			}
		}
		next.ServeHTTP(w, r)
	}
}

func handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusWriter remembers the response status and whether the header was sent.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 && code >= 200 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func (w *statusWriter) Flush() {
	f, ok := w.ResponseWriter.(http.Flusher)
	if !ok {
		return
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	f.Flush()
}

// Started implements auth.StartedWriter.
func (w *statusWriter) Started() bool { return w.status != 0 }

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
