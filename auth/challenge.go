package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error codes from RFC 6750 section 3.1.
const (
	ErrorInvalidRequest = "invalid_request"
	ErrorInvalidToken   = "invalid_token"
)

const (
	problemType             = "https://tools.ietf.org/html/rfc6750#section-3.1"
	problemContentType      = "application/problem+json"
	wwwAuthenticateHeader   = "WWW-Authenticate"
	missingTokenDescription = "Authentication required. Please provide a valid JWT token in the Authorization header."
	invalidTokenDescription = "The access token is invalid or expired"
)

// Problem is the RFC 7807 document written with a 401 rejection.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// Rejection describes a 401 answer produced by the Gate.
type Rejection struct {
	Code        string
	Description string
}

var (
	rejectMissingToken = Rejection{Code: ErrorInvalidRequest, Description: missingTokenDescription}
	rejectInvalidToken = Rejection{Code: ErrorInvalidToken, Description: invalidTokenDescription}
)

// Problem returns the body written for the rejection.
func (rj Rejection) Problem() Problem {
	return Problem{
		Type:   problemType,
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
		Detail: rj.Description,
		Error:  rj.Code,
	}
}

// Challenge returns the WWW-Authenticate value for the rejection.
func (rj Rejection) Challenge(realm string) string {
	return buildBearerChallenge(realm, [][2]string{
		{"error", rj.Code},
		{"error_description", rj.Description},
	})
}

// Write emits the rejection on w.
func (rj Rejection) Write(w http.ResponseWriter, realm string) {
	w.Header().Set(wwwAuthenticateHeader, rj.Challenge(realm))
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(rj.Problem())
}

var challengeEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// buildBearerChallenge builds a Bearer challenge header value:
//
//	Bearer realm="<realm>", error="...", error_description="..."
//
// Params are emitted in the order given. Realm is omitted if empty.
func buildBearerChallenge(realm string, params [][2]string) string {
	pieces := make([]string, 0, 1+len(params))
	if realm != "" {
		pieces = append(pieces, fmt.Sprintf(`realm="%s"`, challengeEscaper.Replace(realm)))
	}
	for _, p := range params {
		pieces = append(pieces, fmt.Sprintf(`%s="%s"`, p[0], challengeEscaper.Replace(p[1])))
	}
	if len(pieces) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(pieces, ", ")
}
