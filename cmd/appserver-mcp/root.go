package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/smartmcp/appserver-mcp/appserver"
	"github.com/smartmcp/appserver-mcp/auth"
	"github.com/smartmcp/appserver-mcp/internal/config"
	"github.com/smartmcp/appserver-mcp/internal/logctx"
	"github.com/smartmcp/appserver-mcp/internal/telemetry"
	"github.com/smartmcp/appserver-mcp/streaminghttp"
	"github.com/smartmcp/appserver-mcp/tools"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type flags struct {
	listenAddr     string
	publicEndpoint string
	logLevel       string
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "appserver-mcp",
		Short: "MCP server for the Sports2000 AppServer procedures",
		Long: `appserver-mcp exposes the Sports2000 business procedures of an
AppServer as MCP tools over streamable HTTP.

Configuration is read from the environment (SMARTMCP_*, SMARTFRAMEWORKMCP_*).
With SMARTMCP_OAUTH2_ENABLED=true and the Oidc token acquisition mode every
request except discovery and the initialize handshake needs a valid bearer
token, which is forwarded to the AppServer. In JwtPassThrough mode tools
forward the pcJwtToken argument instead.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, f)
		},
	}
	cmd.Version = version

	cmd.Flags().StringVar(&f.listenAddr, "listen", "", "Listen address (overrides SMARTMCP_LISTEN_ADDR)")
	cmd.Flags().StringVar(&f.publicEndpoint, "public-endpoint", "", "Public MCP endpoint URL (overrides SMARTMCP_PUBLIC_ENDPOINT)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides SMARTMCP_LOG_LEVEL)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStdioCmd())
	return cmd
}

func newStdioCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Serve the tools over stdin/stdout",
		Long: `stdio serves the same tools to a single local client over stdin/stdout.
There is no HTTP request and so no Gate: in Oidc mode no credential is
forwarded, in JwtPassThrough mode the pcJwtToken argument is.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides SMARTMCP_LOG_LEVEL)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("listen") {
		cfg.ListenAddr = f.listenAddr
	}
	if cmd.Flags().Changed("public-endpoint") {
		cfg.PublicEndpoint = f.publicEndpoint
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	// stdout carries the protocol in stdio mode.
	var h slog.Handler
	switch cfg.LogFormat {
	case "text":
		h = slog.NewTextHandler(os.Stderr, hopts)
	default:
		h = slog.NewJSONHandler(os.Stderr, hopts)
	}
	return slog.New(logctx.Handler{Handler: h}), nil
}

func runServer(cmd *cobra.Command, f flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.LogAttrs(ctx, slog.LevelInfo, "config.loaded", cfg.LogAttrs()...)

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		MetricsExporter: cfg.Telemetry.MetricsExporter,
		TracesExporter:  cfg.Telemetry.TracesExporter,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(sctx); err != nil {
			log.Warn("telemetry.shutdown.fail", slog.String("err", err.Error()))
		}
	}()

	opts, err := cfg.AuthOptions()
	if err != nil {
		return err
	}

	hopts := []streaminghttp.Option{streaminghttp.WithLogger(log)}
	if opts.RequiresToken() {
		authn, err := auth.NewJWTAuthenticator(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to set up token validation: %w", err)
		}
		hopts = append(hopts, streaminghttp.WithAuthenticator(authn))
	}
	if providers.MetricsHandler != nil {
		hopts = append(hopts, streaminghttp.WithMetricsHandler(providers.MetricsHandler))
	}

	gw, err := newGateway(cfg, log)
	if err != nil {
		return err
	}
	svc := tools.New(gw, opts, tools.WithLogger(log), tools.WithImplementation("appserver-mcp", version))

	h, err := streaminghttp.New(cfg.PublicEndpoint, opts, svc.ServerForRequest, hopts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http.listen", slog.String("addr", cfg.ListenAddr), slog.String("public_endpoint", cfg.PublicEndpoint))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("http.shutdown")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func newGateway(cfg *config.Config, log *slog.Logger) (*appserver.HTTPGateway, error) {
	return appserver.NewHTTPGateway(cfg.AppServer.URL, cfg.AppServer.AuthKey,
		appserver.WithHTTPClient(&http.Client{Timeout: cfg.AppServer.Timeout}),
		appserver.WithLogger(log),
	)
}

func runStdio(cmd *cobra.Command, f flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := cfg.AuthOptions()
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg, log)
	if err != nil {
		return err
	}
	svc := tools.New(gw, opts, tools.WithLogger(log), tools.WithImplementation("appserver-mcp", version))

	log.InfoContext(ctx, "stdio.start", slog.String("appserver_url", cfg.AppServer.URL))
	if err := svc.Server("").Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
