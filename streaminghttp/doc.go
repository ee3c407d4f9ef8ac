// Package streaminghttp hosts the MCP streamable HTTP endpoint. It mounts as
// a standard net/http handler and runs the go-sdk transport in stateless
// JSON-response mode, building one MCP server per admitted request.
//
// Request pipeline
//
//	GET /healthz, GET /metrics            served directly
//	everything else                       auth.Authenticate (enabled Oidc only)
//	                                      -> auth.Gate
//	                                      -> discovery documents | MCP route
//
// The Gate lets discovery paths and the initialize handshake through without
// a token. Every other request in enabled Oidc mode needs a bearer token that
// the Authenticator accepted; rejections carry a WWW-Authenticate challenge
// and an application/problem+json body.
//
// Construction
//
//	svc := tools.New(gateway, opts)
//	h, err := streaminghttp.New(
//	    "https://api.example/mcp", // public endpoint, path is the MCP route
//	    opts,                       // auth.Options snapshot
//	    svc.ServerForRequest,       // per-request MCP server
//	    streaminghttp.WithAuthenticator(authenticator),
//	)
//
// Example (mount in net/http):
//
//	http.ListenAndServe(":8080", h)
package streaminghttp
