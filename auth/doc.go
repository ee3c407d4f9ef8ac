// Package auth decides which requests reach the MCP endpoint and which
// credential each tool call forwards to the AppServer.
//
// The configuration is a single Options value built at startup. Two token
// acquisition modes exist:
//
//   - ModeOIDC: requests must carry a bearer token that an Authenticator
//     accepted. The Gate stores the admitted token in the request context and
//     tool calls forward it.
//   - ModePassThrough: no token is checked. Tool calls forward whatever
//     credential the caller passed inline in the tool arguments.
//
// When Options.Enabled is false nothing is checked and nothing is forwarded.
//
// # Request pipeline
//
// In enabled Oidc mode the HTTP host installs two stages in order:
//
//	h = auth.Authenticate(authn)(auth.NewGate(opts).Wrap(mux))
//
// Authenticate validates the bearer token, if any, and records a Validation
// in the context. The Gate classifies the request with Classify: discovery
// paths and the MCP initialize handshake are exempt, everything else needs a
// token. Rejections are RFC 6750 401 responses with a problem+json body.
//
// # Tool calls
//
// Tools call Resolver.ResolveContext with the inline credential from their
// arguments; the result is the credential to forward, "" meaning none.
//
// # Errors
//
// Authenticators return errors wrapping ErrUnauthorized for invalid tokens.
// Any other error is treated the same way by the Gate and logged at warn.
package auth
