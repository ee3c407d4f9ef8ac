package auth

import (
	"context"
	"errors"
	"time"

	"github.com/smartmcp/appserver-mcp/internal/jwtauth"
)

// AccessTokenAuthOption configures optional aspects of the JWT access token
// authenticator (algorithms, leeway).
type AccessTokenAuthOption func(*jwtauth.Config)

// WithAllowedAlgs restricts allowed JWS algorithms. "none" is never allowed.
// Defaults to RS256, RS384 and RS512.
func WithAllowedAlgs(algs ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.AllowedAlgs = append([]string(nil), algs...)
	}
}

// WithLeeway sets clock skew tolerance for time-based claims.
func WithLeeway(d time.Duration) AccessTokenAuthOption {
	return func(c *jwtauth.Config) { c.Leeway = d }
}

// NewJWTAuthenticator returns an Authenticator that verifies JWT access
// tokens for opts. The issuer and audience are enforced only when set. With
// a JWKS URI the key set is fetched directly; otherwise it is found through
// OpenID Connect discovery on the issuer. Keys refresh until ctx is done.
func NewJWTAuthenticator(ctx context.Context, opts Options, options ...AccessTokenAuthOption) (Authenticator, error) {
	cfg := jwtauth.DefaultConfig()
	cfg.Issuer = opts.Issuer
	if opts.Audience != "" {
		cfg.ExpectedAudiences = []string{opts.Audience}
	}
	for _, opt := range options {
		opt(cfg)
	}

	var (
		internal jwtauth.Authenticator
		err      error
	)
	switch {
	case opts.JWKSURI != "":
		internal, err = jwtauth.NewStatic(ctx, cfg, opts.JWKSURI)
	case opts.Issuer != "":
		internal, err = jwtauth.NewFromDiscovery(ctx, cfg)
	default:
		return nil, errors.New("auth: issuer or jwks uri is required")
	}
	if err != nil {
		return nil, err
	}
	return &adapter{a: internal}, nil
}

// adapter wraps the internal authenticator to satisfy the public interface.
type adapter struct {
	a jwtauth.Authenticator
}

func (ad *adapter) CheckAuthentication(ctx context.Context, tok string) (UserInfo, error) {
	ui, err := ad.a.CheckAuthentication(ctx, tok)
	if err != nil {
		if errors.Is(err, jwtauth.ErrUnauthorized) {
			return nil, errors.Join(ErrUnauthorized, err)
		}
		return nil, err
	}
	return userInfoAdapter{ui: ui}, nil
}

type userInfoAdapter struct{ ui jwtauth.UserInfo }

func (u userInfoAdapter) UserID() string       { return u.ui.UserID() }
func (u userInfoAdapter) Claims(ref any) error { return u.ui.Claims(ref) }
