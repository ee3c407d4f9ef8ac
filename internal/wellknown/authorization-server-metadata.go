package wellknown

import "github.com/smartmcp/appserver-mcp/auth"

const (
	AuthorizationServerPath = "/.well-known/oauth-authorization-server"
	OpenIDConfigurationPath = "/.well-known/openid-configuration"
)

var (
	responseTypesSupported            = []string{"code"}
	responseModesSupported            = []string{"query", "fragment"}
	grantTypesSupported               = []string{"authorization_code", "refresh_token"}
	tokenEndpointAuthMethodsSupported = []string{"client_secret_basic", "client_secret_post", "none"}
	codeChallengeMethodsSupported     = []string{"plain", "S256"}
)

// AuthorizationServerMetadata is the RFC 8414 document mirroring the
// configured identity provider. This process is not an authorization server;
// the document lets MCP clients bootstrap against the real one.
type AuthorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	JwksURI                           string   `json:"jwks_uri"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResourceIndicatorsSupported       bool     `json:"resource_indicators_supported"`
	Resource                          string   `json:"resource"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	AuthorizationServerMetadata       string   `json:"authorization_server_metadata"`
}

// NewAuthorizationServerMetadata builds the document from opts. The token
// endpoint doubles as the revocation endpoint.
func NewAuthorizationServerMetadata(opts auth.Options) AuthorizationServerMetadata {
	return AuthorizationServerMetadata{
		Issuer:                            opts.Issuer,
		AuthorizationEndpoint:             opts.AuthorizationEndpoint,
		TokenEndpoint:                     opts.TokenEndpoint,
		JwksURI:                           opts.JWKSURI,
		RegistrationEndpoint:              opts.RegistrationEndpointOrDefault(),
		ResponseTypesSupported:            responseTypesSupported,
		ResponseModesSupported:            responseModesSupported,
		GrantTypesSupported:               grantTypesSupported,
		TokenEndpointAuthMethodsSupported: tokenEndpointAuthMethodsSupported,
		CodeChallengeMethodsSupported:     codeChallengeMethodsSupported,
		ScopesSupported:                   scopes(opts),
		ResourceIndicatorsSupported:       true,
		Resource:                          opts.Audience,
		RevocationEndpoint:                opts.TokenEndpoint,
		AuthorizationServerMetadata:       opts.Issuer + OpenIDConfigurationPath,
	}
}

// OpenIDConfiguration is the OpenID Connect discovery document.
type OpenIDConfiguration struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	JwksURI                           string   `json:"jwks_uri"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	FullMetadataEndpoint              string   `json:"full_metadata_endpoint"`
}

// NewOpenIDConfiguration builds the document from opts.
func NewOpenIDConfiguration(opts auth.Options) OpenIDConfiguration {
	return OpenIDConfiguration{
		Issuer:                            opts.Issuer,
		AuthorizationEndpoint:             opts.AuthorizationEndpoint,
		TokenEndpoint:                     opts.TokenEndpoint,
		JwksURI:                           opts.JWKSURI,
		RegistrationEndpoint:              opts.RegistrationEndpointOrDefault(),
		ResponseTypesSupported:            responseTypesSupported,
		ResponseModesSupported:            responseModesSupported,
		GrantTypesSupported:               grantTypesSupported,
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{"RS256"},
		ScopesSupported:                   scopes(opts),
		TokenEndpointAuthMethodsSupported: tokenEndpointAuthMethodsSupported,
		CodeChallengeMethodsSupported:     codeChallengeMethodsSupported,
		ClaimsSupported:                   []string{"sub", "iss", "aud", "exp", "iat", "auth_time", "name", "email"},
		RevocationEndpoint:                opts.TokenEndpoint,
		FullMetadataEndpoint:              opts.Issuer + OpenIDConfigurationPath,
	}
}
