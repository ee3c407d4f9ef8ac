package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	instrumentationName = "github.com/smartmcp/appserver-mcp/auth"
)

// Option configures a Gate or the Authenticate middleware.
type Option func(*config)

type config struct {
	logger *slog.Logger
	meter  metric.Meter
	source func(*http.Request) Validation
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMeter sets the meter used for decision counters. Defaults to the
// global otel meter provider.
func WithMeter(m metric.Meter) Option {
	return func(c *config) { c.meter = m }
}

// WithValidationSource replaces how the Gate obtains the validation outcome
// for a request. The default reads it from the request context.
func WithValidationSource(fn func(*http.Request) Validation) Option {
	return func(c *config) { c.source = fn }
}

func newConfig(opts []Option) *config {
	c := &config{
		logger: slog.Default(),
		meter:  otel.Meter(instrumentationName),
		source: func(r *http.Request) Validation { return ValidationFromContext(r.Context()) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartedWriter is implemented by response writers that know whether the
// response header has already been sent.
type StartedWriter interface {
	Started() bool
}

func responseStarted(w http.ResponseWriter) bool {
	for w != nil {
		if sw, ok := w.(StartedWriter); ok {
			return sw.Started()
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}
		w = u.Unwrap()
	}
	return false
}

// ExtractBearer returns the token from an Authorization header value. The
// scheme match is case-insensitive and surrounding whitespace is trimmed.
func ExtractBearer(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(bearerPrefix):])
	return tok, tok != ""
}

// Gate decides per request whether it proceeds. In enabled Oidc mode every
// request that is not exempt must carry a bearer token that the validation
// stage accepted; the admitted token is stored with WithCredential. In any
// other configuration the Gate admits everything untouched.
type Gate struct {
	opts      Options
	log       *slog.Logger
	source    func(*http.Request) Validation
	decisions metric.Int64Counter
}

// NewGate returns a Gate over its own copy of opts.
func NewGate(opts Options, options ...Option) *Gate {
	cfg := newConfig(options)
	decisions, err := cfg.meter.Int64Counter(
		"mcp.auth.gate.decisions",
		metric.WithDescription("Authentication gate decisions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		decisions = noop.Int64Counter{}
	}
	return &Gate{
		opts:      opts.Copy(),
		log:       cfg.logger,
		source:    cfg.source,
		decisions: decisions,
	}
}

// Wrap returns next guarded by the Gate.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.opts.RequiresToken() {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()

		class, err := Classify(r)
		if class == Exempt {
			g.record(ctx, "exempt")
			g.log.DebugContext(ctx, "auth.gate.exempt")
			next.ServeHTTP(w, r)
			return
		}
		if errors.Is(err, errEnvelopeDecode) {
			g.log.InfoContext(ctx, "auth.gate.handshake_unparsed", slog.String("err", err.Error()))
		} else if err != nil {
			g.log.DebugContext(ctx, "auth.gate.classify", slog.String("reason", err.Error()))
		}

		tok, ok := ExtractBearer(r.Header.Get(authorizationHeader))
		if !ok {
			g.reject(ctx, w, rejectMissingToken)
			return
		}

		v := g.source(r)
		if v == nil || !v.IsAuthenticated() {
			g.reject(ctx, w, rejectInvalidToken)
			return
		}
		if vt := v.BearerToken(); vt != "" && vt != tok {
			g.log.WarnContext(ctx, "auth.gate.token_mismatch")
			g.reject(ctx, w, rejectInvalidToken)
			return
		}

		g.record(ctx, "admitted")
		g.log.DebugContext(ctx, "auth.gate.admit")
		next.ServeHTTP(w, r.WithContext(WithCredential(ctx, tok)))
	})
}

func (g *Gate) reject(ctx context.Context, w http.ResponseWriter, rj Rejection) {
	g.record(ctx, rj.Code)
	g.log.InfoContext(ctx, "auth.gate.reject", slog.String("error", rj.Code))
	if responseStarted(w) {
		g.log.WarnContext(ctx, "auth.gate.reject.skipped", slog.String("err", "response already started"))
		return
	}
	rj.Write(w, g.opts.Realm())
}

func (g *Gate) record(ctx context.Context, outcome string) {
	g.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
