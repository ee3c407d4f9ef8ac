package auth

import (
	"fmt"
	"strings"
)

// Mode selects how the credential forwarded to the AppServer is obtained.
type Mode string

const (
	// ModeOIDC requires a validated bearer token on every protected request
	// and forwards that token.
	ModeOIDC Mode = "Oidc"
	// ModePassThrough forwards a credential supplied inline by the caller
	// without verifying it.
	ModePassThrough Mode = "JwtPassThrough"
)

// DefaultScopes are advertised when no scopes are configured.
var DefaultScopes = []string{"openid", "profile"}

// ParseMode maps a configuration string onto a Mode. Matching is
// case-insensitive and accepts "passthrough" as a short form.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oidc":
		return ModeOIDC, nil
	case "jwtpassthrough", "passthrough":
		return ModePassThrough, nil
	default:
		return "", fmt.Errorf("auth: unknown token acquisition mode %q", s)
	}
}

// Options is the immutable authentication configuration snapshot. It is
// built once at startup; every consumer keeps its own Copy.
type Options struct {
	Enabled bool
	Mode    Mode

	Issuer                string
	Audience              string
	JWKSURI               string
	AuthorizationEndpoint string
	TokenEndpoint         string
	RegistrationEndpoint  string
	Scopes                []string
}

// Copy returns a deep copy safe for mutation by the caller.
func (o Options) Copy() Options {
	dup := o
	dup.Scopes = append([]string(nil), o.Scopes...)
	return dup
}

// Normalize returns a copy with defaults applied: an empty mode becomes
// ModeOIDC and empty scopes become DefaultScopes. Unknown modes are kept so
// that consumers can fail closed on them.
func (o Options) Normalize() Options {
	dup := o.Copy()
	if dup.Mode == "" {
		dup.Mode = ModeOIDC
	}
	if len(dup.Scopes) == 0 {
		dup.Scopes = append([]string(nil), DefaultScopes...)
	}
	return dup
}

// Validate reports configuration that cannot produce a working server.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeOIDC, ModePassThrough:
	default:
		return fmt.Errorf("auth: unknown token acquisition mode %q", o.Mode)
	}
	if o.Enabled && o.Mode == ModeOIDC && o.Issuer == "" && o.JWKSURI == "" {
		return fmt.Errorf("auth: oidc mode needs an issuer or a jwks uri")
	}
	return nil
}

// RegistrationEndpointOrDefault returns the configured registration endpoint,
// falling back to the Keycloak client registration path under the issuer.
func (o Options) RegistrationEndpointOrDefault() string {
	if o.RegistrationEndpoint != "" {
		return o.RegistrationEndpoint
	}
	if o.Issuer != "" {
		return o.Issuer + "/clients-registrations/openid-connect"
	}
	return ""
}

// Realm is the realm advertised in WWW-Authenticate challenges.
func (o Options) Realm() string {
	if o.Issuer != "" {
		return o.Issuer
	}
	return "mcp-server"
}

// RequiresToken reports whether the Gate enforces bearer tokens, which is
// the case only for enabled Oidc mode.
func (o Options) RequiresToken() bool {
	return o.Enabled && o.Mode == ModeOIDC
}
