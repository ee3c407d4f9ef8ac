package auth

import "context"

type credentialKey struct{}

// WithCredential stores the bearer string admitted by the Gate.
func WithCredential(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, credentialKey{}, tok)
}

// CredentialFromContext returns the bearer string stored by the Gate, or ""
// when the request was not authenticated.
func CredentialFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(credentialKey{}).(string)
	return tok
}

type validationKey struct{}

// WithValidation stores the outcome of token validation for the Gate.
func WithValidation(ctx context.Context, v Validation) context.Context {
	return context.WithValue(ctx, validationKey{}, v)
}

// ValidationFromContext returns the stored validation outcome. When no
// validation ran, the returned value reports not authenticated.
func ValidationFromContext(ctx context.Context) Validation {
	if v, ok := ctx.Value(validationKey{}).(Validation); ok && v != nil {
		return v
	}
	return validation{}
}

type userInfoKey struct{}

// WithUserInfo stores the principal produced by the Authenticator.
func WithUserInfo(ctx context.Context, ui UserInfo) context.Context {
	return context.WithValue(ctx, userInfoKey{}, ui)
}

// UserInfoFromContext returns the principal produced by the Authenticator.
func UserInfoFromContext(ctx context.Context) (UserInfo, bool) {
	ui, ok := ctx.Value(userInfoKey{}).(UserInfo)
	return ui, ok && ui != nil
}

// validation is the concrete Validation recorded by Authenticate.
type validation struct {
	ok  bool
	tok string
}

func (v validation) IsAuthenticated() bool { return v.ok }
func (v validation) BearerToken() string   { return v.tok }
