package auth

import "context"

// Resolve decides which credential is forwarded to the AppServer for a tool
// call. inline is the credential the caller put in the tool arguments and
// contextCredential is the bearer string admitted by the Gate. The empty
// string means no credential.
func Resolve(inline string, opts Options, contextCredential string) string {
	if !opts.Enabled {
		return ""
	}
	switch opts.Mode {
	case ModeOIDC:
		return contextCredential
	case ModePassThrough:
		return inline
	default:
		return ""
	}
}

// Resolver binds Resolve to an Options snapshot.
type Resolver struct {
	opts Options
}

// NewResolver returns a Resolver over its own copy of opts.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts.Copy()}
}

// Resolve applies Resolve with the bound options.
func (r *Resolver) Resolve(inline, contextCredential string) string {
	return Resolve(inline, r.opts, contextCredential)
}

// ResolveContext applies Resolve using the credential stored in ctx.
func (r *Resolver) ResolveContext(ctx context.Context, inline string) string {
	return Resolve(inline, r.opts, CredentialFromContext(ctx))
}
