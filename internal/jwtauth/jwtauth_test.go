package jwtauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// mockIDP serves a Keycloak-shaped realm: discovery plus certs.
type mockIDP struct {
	srv      *httptest.Server
	issuer   string
	jwksPath string
}

func newMockIDP(t *testing.T, keysJSON []byte, discovery map[string]any) *mockIDP {
	t.Helper()
	m := &mockIDP{jwksPath: "/protocol/openid-connect/certs"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		meta := map[string]any{
			"issuer":                   m.issuer,
			"jwks_uri":                 m.issuer + m.jwksPath,
			"authorization_endpoint":   m.issuer + "/protocol/openid-connect/auth",
			"token_endpoint":           m.issuer + "/protocol/openid-connect/token",
			"response_types_supported": []string{"code"},
		}
		for k, v := range discovery {
			meta[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(meta)
	})
	mux.HandleFunc(m.jwksPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(keysJSON)
	})
	m.srv = httptest.NewServer(mux)
	m.issuer = m.srv.URL
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockIDP) jwksURI() string { return m.issuer + m.jwksPath }

func genRSA(t *testing.T) (*rsa.PrivateKey, string, []byte) {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	kid := "test-key"
	jwk := jose.JSONWebKey{Key: &pk.PublicKey, KeyID: kid, Algorithm: "RS256", Use: "sig"}
	set := struct {
		Keys []jose.JSONWebKey `json:"keys"`
	}{Keys: []jose.JSONWebKey{jwk}}
	b, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return pk, kid, b
}

func signToken(t *testing.T, method jwt.SigningMethod, pk *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(pk)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(issuer, aud string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss": issuer,
		"sub": "user-123",
		"aud": aud,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
}

const testAudience = "sports2000-mcp"

func TestDiscovery_HappyPath(t *testing.T) {
	pk, kid, jwks := genRSA(t)
	idp := newMockIDP(t, jwks, nil)

	cfg := DefaultConfig()
	cfg.Issuer = idp.issuer
	cfg.ExpectedAudiences = []string{testAudience}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := NewFromDiscovery(ctx, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	claims := validClaims(idp.issuer, testAudience)
	claims["email"] = "jane@example.com"
	ui, err := a.CheckAuthentication(ctx, signToken(t, jwt.SigningMethodRS256, pk, kid, claims))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ui.UserID() != "user-123" {
		t.Fatalf("want sub user-123, got %s", ui.UserID())
	}
	var out struct {
		Email string `json:"email"`
	}
	if err := ui.Claims(&out); err != nil {
		t.Fatalf("claims: %v", err)
	}
	if out.Email != "jane@example.com" {
		t.Fatalf("email roundtrip mismatch: %q", out.Email)
	}
}

func TestDiscovery_MissingJWKS(t *testing.T) {
	_, _, jwks := genRSA(t)
	idp := newMockIDP(t, jwks, map[string]any{"jwks_uri": ""})

	cfg := DefaultConfig()
	cfg.Issuer = idp.issuer
	if _, err := NewFromDiscovery(context.Background(), cfg); err == nil {
		t.Fatalf("expected discovery error for missing jwks_uri")
	}
}

func TestDiscovery_RequiresIssuer(t *testing.T) {
	if _, err := NewFromDiscovery(context.Background(), DefaultConfig()); err == nil {
		t.Fatalf("expected error without issuer")
	}
}

func TestStatic_OptionalIssuerAndAudience(t *testing.T) {
	pk, kid, jwks := genRSA(t)
	idp := newMockIDP(t, jwks, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := NewStatic(ctx, DefaultConfig(), idp.jwksURI())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	claims := validClaims("https://some-other-issuer", "some-other-audience")
	if _, err := a.CheckAuthentication(ctx, signToken(t, jwt.SigningMethodRS256, pk, kid, claims)); err != nil {
		t.Fatalf("want token accepted when issuer and audience are unset, got %v", err)
	}
}

func TestStatic_Rejections(t *testing.T) {
	pk, kid, jwks := genRSA(t)
	idp := newMockIDP(t, jwks, nil)
	otherKey, _, _ := genRSA(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultConfig()
	cfg.Issuer = idp.issuer
	cfg.ExpectedAudiences = []string{testAudience}
	cfg.Leeway = time.Second
	a, err := NewStatic(ctx, cfg, idp.jwksURI())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	expired := validClaims(idp.issuer, testAudience)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noExp := validClaims(idp.issuer, testAudience)
	delete(noExp, "exp")

	futureIat := validClaims(idp.issuer, testAudience)
	futureIat["iat"] = time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name string
		tok  string
	}{
		{"issuer mismatch", signToken(t, jwt.SigningMethodRS256, pk, kid, validClaims("https://evil.example", testAudience))},
		{"audience mismatch", signToken(t, jwt.SigningMethodRS256, pk, kid, validClaims(idp.issuer, "someone-else"))},
		{"expired", signToken(t, jwt.SigningMethodRS256, pk, kid, expired)},
		{"missing exp", signToken(t, jwt.SigningMethodRS256, pk, kid, noExp)},
		{"iat in future", signToken(t, jwt.SigningMethodRS256, pk, kid, futureIat)},
		{"wrong key", signToken(t, jwt.SigningMethodRS256, otherKey, kid, validClaims(idp.issuer, testAudience))},
		{"garbage", "not-a-jwt"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.CheckAuthentication(ctx, tt.tok)
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("want ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestStatic_AudienceArray(t *testing.T) {
	pk, kid, jwks := genRSA(t)
	idp := newMockIDP(t, jwks, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultConfig()
	cfg.ExpectedAudiences = []string{testAudience}
	a, err := NewStatic(ctx, cfg, idp.jwksURI())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	claims := validClaims(idp.issuer, "")
	claims["aud"] = []string{"account", testAudience}
	if _, err := a.CheckAuthentication(ctx, signToken(t, jwt.SigningMethodRS256, pk, kid, claims)); err != nil {
		t.Fatalf("want audience array accepted, got %v", err)
	}
}

func TestStatic_DisallowedAlg(t *testing.T) {
	pk, kid, jwks := genRSA(t)
	idp := newMockIDP(t, jwks, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultConfig()
	cfg.AllowedAlgs = []string{"RS512"}
	a, err := NewStatic(ctx, cfg, idp.jwksURI())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok := signToken(t, jwt.SigningMethodRS256, pk, kid, validClaims(idp.issuer, testAudience))
	if _, err := a.CheckAuthentication(ctx, tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for RS256 when only RS512 allowed, got %v", err)
	}
}

func TestStatic_RequiresJWKS(t *testing.T) {
	if _, err := NewStatic(context.Background(), DefaultConfig(), ""); err == nil {
		t.Fatalf("expected error without jwks uri")
	}
}
