package config

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/smartmcp/appserver-mcp/auth"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.PublicEndpoint != "http://localhost:8080/mcp" {
		t.Fatalf("unexpected listen defaults: %+v", cfg)
	}
	if cfg.AppServer.URL != DefaultAppServerURL {
		t.Fatalf("want default appserver url, got %q", cfg.AppServer.URL)
	}
	if cfg.AppServer.Timeout != 30*time.Second {
		t.Fatalf("want 30s timeout, got %s", cfg.AppServer.Timeout)
	}
	opts, err := cfg.AuthOptions()
	if err != nil {
		t.Fatalf("auth options: %v", err)
	}
	if opts.Enabled {
		t.Fatalf("auth must be disabled by default")
	}
	if opts.Mode != auth.ModeOIDC {
		t.Fatalf("want default mode Oidc, got %q", opts.Mode)
	}
	if !slices.Equal(opts.Scopes, []string{"openid", "profile"}) {
		t.Fatalf("want default scopes, got %v", opts.Scopes)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SMARTMCP_LISTEN_ADDR", ":9090")
	t.Setenv("SMARTFRAMEWORKMCP_PASOE_URL", "http://appserver.local:8810/apsv")
	t.Setenv("SMARTFRAMEWORKMCP_AUTH_KEY", "k3y")
	t.Setenv("SMARTMCP_APPSERVER_TIMEOUT", "5s")
	t.Setenv("SMARTMCP_LOG_LEVEL", "debug")
	t.Setenv("SMARTMCP_OAUTH2_ENABLED", "true")
	t.Setenv("SMARTMCP_OAUTH2_TOKEN_ACQUISITION", "JwtPassThrough")
	t.Setenv("SMARTMCP_OAUTH2_ISSUER", "https://kc.example/realms/sports")
	t.Setenv("SMARTMCP_OAUTH2_AUDIENCE", "sports2000-mcp")
	t.Setenv("SMARTMCP_OAUTH2_SCOPES", "openid;sports")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("listen addr: %q", cfg.ListenAddr)
	}
	if cfg.AppServer.URL != "http://appserver.local:8810/apsv" || cfg.AppServer.AuthKey != "k3y" {
		t.Fatalf("appserver: %+v", cfg.AppServer)
	}
	if cfg.AppServer.Timeout != 5*time.Second {
		t.Fatalf("timeout: %s", cfg.AppServer.Timeout)
	}
	if lvl, _ := cfg.SlogLevel(); lvl != slog.LevelDebug {
		t.Fatalf("want debug level, got %s", lvl)
	}
	opts, err := cfg.AuthOptions()
	if err != nil {
		t.Fatalf("auth options: %v", err)
	}
	want := auth.Options{
		Enabled:  true,
		Mode:     auth.ModePassThrough,
		Issuer:   "https://kc.example/realms/sports",
		Audience: "sports2000-mcp",
		Scopes:   []string{"openid", "sports"},
	}
	if opts.Enabled != want.Enabled || opts.Mode != want.Mode || opts.Issuer != want.Issuer || opts.Audience != want.Audience || !slices.Equal(opts.Scopes, want.Scopes) {
		t.Fatalf("want %+v, got %+v", want, opts)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown mode", map[string]string{"SMARTMCP_OAUTH2_TOKEN_ACQUISITION": "ApiKey"}},
		{"bad public endpoint", map[string]string{"SMARTMCP_PUBLIC_ENDPOINT": "ftp://x/mcp"}},
		{"bad log level", map[string]string{"SMARTMCP_LOG_LEVEL": "loud"}},
		{"bad log format", map[string]string{"SMARTMCP_LOG_FORMAT": "xml"}},
		{"oidc without key source", map[string]string{"SMARTMCP_OAUTH2_ENABLED": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLogAttrs_MasksSecret(t *testing.T) {
	cfg := &Config{OAuth2: OAuth2{ClientID: "mcp-client", ClientSecret: "s3cr3t"}}
	var sb strings.Builder
	log := slog.New(slog.NewTextHandler(&sb, nil))
	log.LogAttrs(t.Context(), slog.LevelInfo, "config", cfg.LogAttrs()...)
	out := sb.String()
	if strings.Contains(out, "s3cr3t") {
		t.Fatalf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "oauth2.client_secret=***") || !strings.Contains(out, "oauth2.client_id=mcp-client") {
		t.Fatalf("unexpected summary: %s", out)
	}

	public := &Config{}
	sb.Reset()
	log.LogAttrs(t.Context(), slog.LevelInfo, "config", public.LogAttrs()...)
	if !strings.Contains(sb.String(), "public client") {
		t.Fatalf("want public client marker: %s", sb.String())
	}
}
