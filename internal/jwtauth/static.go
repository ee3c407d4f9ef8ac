package jwtauth

import (
	"context"
	"errors"
)

// NewStatic constructs an authenticator that validates JWT access tokens
// against a statically configured JWKS URI (no discovery). Issuer and
// audiences in cfg are optional.
func NewStatic(ctx context.Context, cfg *Config, jwksURI string) (*validator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if jwksURI == "" {
		return nil, errors.New("jwks uri required")
	}
	dup := *cfg
	dup.ExpectedAudiences = append([]string(nil), cfg.ExpectedAudiences...)
	return newValidator(ctx, &dup, jwksURI)
}
