// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/smartmcp/appserver-mcp/auth"
)

const (
	DefaultListenAddr     = ":8080"
	DefaultPublicEndpoint = "http://localhost:8080/mcp"
	DefaultAppServerURL   = "https://sfrbo.consultingwerkcloud.com:8821/apsv"
)

// Config is the process configuration. Defaults are provided via struct tags.
type Config struct {
	// ListenAddr like ":8080". ENV: SMARTMCP_LISTEN_ADDR
	ListenAddr string `env:"SMARTMCP_LISTEN_ADDR,default=:8080"`
	// PublicEndpoint is the externally visible MCP URL; its path is the MCP
	// route. ENV: SMARTMCP_PUBLIC_ENDPOINT
	PublicEndpoint string `env:"SMARTMCP_PUBLIC_ENDPOINT,default=http://localhost:8080/mcp"`
	LogLevel       string `env:"SMARTMCP_LOG_LEVEL,default=info"`
	LogFormat      string `env:"SMARTMCP_LOG_FORMAT,default=json"`

	AppServer AppServer
	Telemetry Telemetry
	OAuth2    OAuth2
}

// AppServer configures the remote procedure gateway.
type AppServer struct {
	URL     string        `env:"SMARTFRAMEWORKMCP_PASOE_URL,default=https://sfrbo.consultingwerkcloud.com:8821/apsv"`
	AuthKey string        `env:"SMARTFRAMEWORKMCP_AUTH_KEY"`
	Timeout time.Duration `env:"SMARTMCP_APPSERVER_TIMEOUT,default=30s"`
}

// Telemetry selects the otel exporters.
type Telemetry struct {
	MetricsExporter string `env:"SMARTMCP_METRICS_EXPORTER,default=none"`
	TracesExporter  string `env:"SMARTMCP_TRACES_EXPORTER,default=none"`
}

// OAuth2 is the raw authentication configuration.
type OAuth2 struct {
	Enabled               bool     `env:"SMARTMCP_OAUTH2_ENABLED,default=false"`
	TokenAcquisition      string   `env:"SMARTMCP_OAUTH2_TOKEN_ACQUISITION,default=Oidc"`
	Issuer                string   `env:"SMARTMCP_OAUTH2_ISSUER"`
	Audience              string   `env:"SMARTMCP_OAUTH2_AUDIENCE"`
	JWKSURI               string   `env:"SMARTMCP_OAUTH2_JWKS_URI"`
	AuthorizationEndpoint string   `env:"SMARTMCP_OAUTH2_AUTHORIZATION_ENDPOINT"`
	TokenEndpoint         string   `env:"SMARTMCP_OAUTH2_TOKEN_ENDPOINT"`
	RegistrationEndpoint  string   `env:"SMARTMCP_OAUTH2_REGISTRATION_ENDPOINT"`
	Scopes                []string `env:"SMARTMCP_OAUTH2_SCOPES,default=openid;profile"`
	ClientID              string   `env:"SMARTMCP_OAUTH2_CLIENT_ID"`
	ClientSecret          string   `env:"SMARTMCP_OAUTH2_CLIENT_SECRET"`
}

// Load decodes the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.PublicEndpoint == "" {
		c.PublicEndpoint = DefaultPublicEndpoint
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.AppServer.URL == "" {
		c.AppServer.URL = DefaultAppServerURL
	}
	if c.AppServer.Timeout == 0 {
		c.AppServer.Timeout = 30 * time.Second
	}
	if c.Telemetry.MetricsExporter == "" {
		c.Telemetry.MetricsExporter = "none"
	}
	if c.Telemetry.TracesExporter == "" {
		c.Telemetry.TracesExporter = "none"
	}
}

// Validate returns an error if the configuration cannot start a server.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.PublicEndpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("config: public endpoint %q must be an http(s) URL", c.PublicEndpoint))
	}
	if u, err := url.Parse(c.AppServer.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("config: appserver url %q must be an http(s) URL", c.AppServer.URL))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("config: log format %q must be json or text", c.LogFormat))
	}
	if opts, err := c.AuthOptions(); err != nil {
		errs = append(errs, err)
	} else if err := opts.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AuthOptions builds the authentication snapshot.
func (c *Config) AuthOptions() (auth.Options, error) {
	mode, err := auth.ParseMode(c.OAuth2.TokenAcquisition)
	if err != nil {
		return auth.Options{}, err
	}
	return auth.Options{
		Enabled:               c.OAuth2.Enabled,
		Mode:                  mode,
		Issuer:                c.OAuth2.Issuer,
		Audience:              c.OAuth2.Audience,
		JWKSURI:               c.OAuth2.JWKSURI,
		AuthorizationEndpoint: c.OAuth2.AuthorizationEndpoint,
		TokenEndpoint:         c.OAuth2.TokenEndpoint,
		RegistrationEndpoint:  c.OAuth2.RegistrationEndpoint,
		Scopes:                c.OAuth2.Scopes,
	}.Normalize(), nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return lvl, nil
}

// LogAttrs summarizes the effective authentication configuration. The client
// secret is never logged.
func (c *Config) LogAttrs() []slog.Attr {
	secret := "(not set - public client)"
	if c.OAuth2.ClientSecret != "" {
		secret = "***"
	}
	clientID := c.OAuth2.ClientID
	if clientID == "" {
		clientID = "(not set)"
	}
	return []slog.Attr{
		slog.String("listen_addr", c.ListenAddr),
		slog.String("public_endpoint", c.PublicEndpoint),
		slog.String("appserver_url", c.AppServer.URL),
		slog.Bool("appserver_auth_key_set", c.AppServer.AuthKey != ""),
		slog.Group("oauth2",
			slog.Bool("enabled", c.OAuth2.Enabled),
			slog.String("token_acquisition", c.OAuth2.TokenAcquisition),
			slog.String("issuer", c.OAuth2.Issuer),
			slog.String("audience", c.OAuth2.Audience),
			slog.String("jwks_uri", c.OAuth2.JWKSURI),
			slog.String("authorization_endpoint", c.OAuth2.AuthorizationEndpoint),
			slog.String("token_endpoint", c.OAuth2.TokenEndpoint),
			slog.Any("scopes", c.OAuth2.Scopes),
			slog.String("client_id", clientID),
			slog.String("client_secret", secret),
		),
	}
}
