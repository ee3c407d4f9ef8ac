// Package authtest provides Authenticator fakes for tests.
package authtest

import (
	"context"
	"fmt"

	"github.com/smartmcp/appserver-mcp/auth"
)

// StaticTokens is an Authenticator that accepts a fixed set of bearer
// strings, each mapped to a user ID.
type StaticTokens map[string]string

// NewStaticTokens accepts each token in toks as user "test-user".
func NewStaticTokens(toks ...string) StaticTokens {
	st := StaticTokens{}
	for _, t := range toks {
		st[t] = "test-user"
	}
	return st
}

// CheckAuthentication implements auth.Authenticator.
func (s StaticTokens) CheckAuthentication(_ context.Context, tok string) (auth.UserInfo, error) {
	uid, ok := s[tok]
	if !ok {
		return nil, fmt.Errorf("%w: unknown test token", auth.ErrUnauthorized)
	}
	return userInfo{userID: uid}, nil
}

type userInfo struct {
	userID string
}

func (u userInfo) UserID() string       { return u.userID }
func (u userInfo) Claims(ref any) error { return nil }
