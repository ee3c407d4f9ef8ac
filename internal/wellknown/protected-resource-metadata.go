package wellknown

import "github.com/smartmcp/appserver-mcp/auth"

// ProtectedResourcePath serves the RFC 9728 protected resource metadata.
const ProtectedResourcePath = "/.well-known/oauth-protected-resource"

// ProtectedResourceMetadata is the RFC 9728 document describing this MCP
// server as a protected resource. Audience is not part of RFC 9728; MCP
// clients use it to request correctly scoped tokens.
type ProtectedResourceMetadata struct {
	Resource                          string   `json:"resource"`
	AuthorizationServers              []string `json:"authorization_servers"`
	BearerMethodsSupported            []string `json:"bearer_methods_supported"`
	ResourceDocumentation             string   `json:"resource_documentation"`
	ResourceSigningAlgValuesSupported []string `json:"resource_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	Audience                          string   `json:"audience"`
}

// NewProtectedResourceMetadata builds the document from opts.
func NewProtectedResourceMetadata(opts auth.Options) ProtectedResourceMetadata {
	return ProtectedResourceMetadata{
		Resource:                          opts.Audience,
		AuthorizationServers:              []string{opts.Issuer},
		BearerMethodsSupported:            []string{"header"},
		ResourceDocumentation:             "https://modelcontextprotocol.io",
		ResourceSigningAlgValuesSupported: []string{"RS256", "RS384", "RS512"},
		ScopesSupported:                   scopes(opts),
		Audience:                          opts.Audience,
	}
}

func scopes(opts auth.Options) []string {
	if len(opts.Scopes) == 0 {
		return append([]string(nil), auth.DefaultScopes...)
	}
	return append([]string(nil), opts.Scopes...)
}
