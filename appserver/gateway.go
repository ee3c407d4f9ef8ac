// Package appserver calls business procedures on the legacy application
// server. Responses are opaque strings; this package never interprets them.
package appserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/smartmcp/appserver-mcp/internal/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is a single procedure call.
type Request struct {
	// Procedure is the procedure path on the AppServer, e.g.
	// "Consultingwerk/SmartComponentsDemo/Sports2000McpServer/query-customers.p".
	Procedure string
	// Credential is the bearer string forwarded to the procedure. Empty
	// means the call is made without a user credential.
	Credential string
	// Params are the business parameters by name.
	Params map[string]any
}

// Gateway invokes procedures on the AppServer.
type Gateway interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// RemoteError reports a non-success answer from the AppServer.
type RemoteError struct {
	Procedure string
	Status    int
	Body      string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("appserver: %s failed with status %d", e.Procedure, e.Status)
	}
	return fmt.Sprintf("appserver: %s failed with status %d: %s", e.Procedure, e.Status, e.Body)
}

const (
	maxResponseBytes = 16 << 20
	maxErrorBody     = 512
	requestIDHeader  = "X-Request-Id"
	tracerName       = "github.com/smartmcp/appserver-mcp/appserver"
)

var errEmptyProcedure = errors.New("appserver: procedure is required")

// Option configures an HTTPGateway.
type Option func(*HTTPGateway)

// WithHTTPClient sets the client used for calls.
func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTPGateway) { g.client = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *HTTPGateway) { g.log = l }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *HTTPGateway) { g.tracer = tp.Tracer(tracerName) }
}

// HTTPGateway posts each call as a JSON envelope to the AppServer web
// handler and returns the response body.
type HTTPGateway struct {
	endpoint string
	authKey  string
	client   *http.Client
	log      *slog.Logger
	tracer   trace.Tracer
}

type callEnvelope struct {
	Procedure  string         `json:"procedure"`
	AuthKey    string         `json:"authKey"`
	JWTToken   string         `json:"jwtToken"`
	Parameters map[string]any `json:"parameters"`
}

// NewHTTPGateway returns a gateway for the AppServer at endpoint. authKey is
// sent with every call.
func NewHTTPGateway(endpoint, authKey string, opts ...Option) (*HTTPGateway, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid appserver URL %q: %w", endpoint, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("appserver URL must use HTTP or HTTPS scheme, got %q", u.Scheme)
	}
	g := &HTTPGateway{
		endpoint: u.String(),
		authKey:  authKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Invoke performs a single call. There are no retries.
func (g *HTTPGateway) Invoke(ctx context.Context, req Request) (out string, err error) {
	if req.Procedure == "" {
		return "", errEmptyProcedure
	}
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "appserver.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("appserver.procedure", req.Procedure),
			attribute.Bool("appserver.credential", req.Credential != ""),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			g.log.WarnContext(ctx, "appserver.invoke.fail", slog.String("procedure", req.Procedure), slog.Duration("dur", time.Since(start)), slog.String("err", err.Error()))
		} else {
			g.log.DebugContext(ctx, "appserver.invoke.ok", slog.String("procedure", req.Procedure), slog.Duration("dur", time.Since(start)))
		}
		span.End()
	}()

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(callEnvelope{
		Procedure:  req.Procedure,
		AuthKey:    g.authKey,
		JWTToken:   req.Credential,
		Parameters: params,
	})
	if err != nil {
		return "", fmt.Errorf("appserver: encode %s: %w", req.Procedure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("appserver: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/plain")
	reqID := logctx.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	httpReq.Header.Set(requestIDHeader, reqID)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("appserver: call %s: %w", req.Procedure, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("appserver: read %s response: %w", req.Procedure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(data)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &RemoteError{Procedure: req.Procedure, Status: resp.StatusCode, Body: msg}
	}
	return string(data), nil
}

var _ Gateway = (*HTTPGateway)(nil)
