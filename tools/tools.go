// Package tools exposes the Sports2000 business procedures as MCP tools.
//
// Every tool forwards its arguments to a procedure on the AppServer together
// with the credential chosen by auth.Resolver. In JwtPassThrough mode that is
// the optional pcJwtToken argument; in Oidc mode it is the bearer token the
// Gate admitted for the HTTP request.
package tools

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/smartmcp/appserver-mcp/appserver"
	"github.com/smartmcp/appserver-mcp/auth"
	"github.com/smartmcp/appserver-mcp/internal/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/smartmcp/appserver-mcp/tools"

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMeter sets the meter used for call metrics. Defaults to the global otel
// meter provider.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.meter = m }
}

// WithImplementation sets the name and version reported during initialize.
func WithImplementation(name, version string) Option {
	return func(s *Service) { s.impl = &mcp.Implementation{Name: name, Version: version} }
}

// Service builds MCP servers whose tools call the AppServer.
type Service struct {
	gateway  appserver.Gateway
	resolver *auth.Resolver
	log      *slog.Logger
	meter    metric.Meter
	impl     *mcp.Implementation
	metrics  *callMetrics
}

// New returns a Service calling gw. opts is copied.
func New(gw appserver.Gateway, opts auth.Options, options ...Option) *Service {
	s := &Service{
		gateway:  gw,
		resolver: auth.NewResolver(opts),
		log:      slog.Default(),
		meter:    otel.Meter(instrumentationName),
		impl:     &mcp.Implementation{Name: "appserver-mcp", Version: "dev"},
	}
	for _, opt := range options {
		opt(s)
	}
	s.metrics = newCallMetrics(s.meter)
	return s
}

// Server returns an MCP server with every tool registered. credential is the
// bearer token admitted for the current request, or "" when there is none.
func (s *Service) Server(credential string) *mcp.Server {
	server := mcp.NewServer(s.impl, nil)
	addTool[CustomerLookupInput](s, server, credential, GetCustomerDetailsTool(), ProcGetCustomerDetails)
	addTool[ItemLookupInput](s, server, credential, GetItemDetailsTool(), ProcGetItemDetails)
	addTool[CustomerLookupInput](s, server, credential, OpenCustomerFormTool(), ProcOpenCustomerForm)
	addTool[QueryCustomersInput](s, server, credential, QueryCustomersTool(), ProcQueryCustomers)
	addTool[UpdateCustomerInput](s, server, credential, UpdateCustomerDetailsTool(), ProcUpdateCustomerDetails)
	return server
}

// ServerForRequest builds the server for an HTTP request that already passed
// the Gate. It matches the getServer callback of mcp.NewStreamableHTTPHandler.
func (s *Service) ServerForRequest(r *http.Request) *mcp.Server {
	return s.Server(auth.CredentialFromContext(r.Context()))
}

// call is implemented by every tool input.
type call interface {
	params() map[string]any
	inlineCredential() string
}

func addTool[In call](s *Service, server *mcp.Server, credential string, tool *mcp.Tool, procedure string) {
	mcp.AddTool(server, tool, handlerFor[In](s, tool.Name, procedure, credential))
}

func handlerFor[In call](s *Service, name, procedure, credential string) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		ctx = auth.WithCredential(ctx, credential)
		ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: name, Procedure: procedure})

		start := time.Now()
		out, err := s.gateway.Invoke(ctx, appserver.Request{
			Procedure:  procedure,
			Credential: s.resolver.ResolveContext(ctx, in.inlineCredential()),
			Params:     in.params(),
		})
		dur := time.Since(start)
		s.metrics.record(ctx, name, dur, err)
		if err != nil {
			s.log.WarnContext(ctx, "tool.call.fail", slog.Duration("dur", dur), slog.String("err", err.Error()))
			return errorResult(err), nil, nil
		}
		s.log.DebugContext(ctx, "tool.call.ok", slog.Duration("dur", dur))
		return textResult(out), nil, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
