package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Classification tells the Gate whether a request may proceed without a
// bearer token.
type Classification int

const (
	// RequiresAuth requests must carry a validated bearer token.
	RequiresAuth Classification = iota
	// Exempt requests bypass the token check.
	Exempt
)

func (c Classification) String() string {
	if c == Exempt {
		return "exempt"
	}
	return "requires_auth"
}

// MaxHandshakePeek is the largest request body inspected when looking for an
// initialize handshake. Larger bodies are never exempt.
const MaxHandshakePeek = 4096

const (
	wellKnownPrefix  = "/.well-known/"
	oauth2MetaPath   = "/oauth2/metadata"
	initializeMethod = "initialize"
)

var (
	errNotPost        = errors.New("not a POST request")
	errBodyLength     = errors.New("body length unknown or outside handshake range")
	errBodyTooLarge   = errors.New("body exceeds handshake peek limit")
	errNoMethod       = errors.New("envelope has no method")
	errNotInitialize  = errors.New("method is not initialize")
	errEnvelopeDecode = errors.New("body is not a JSON-RPC envelope")
)

// envelope is the subset of a JSON-RPC message needed to spot a handshake.
// A non-string method fails the decode.
type envelope struct {
	Method *string `json:"method"`
}

// Classify decides whether r is exempt from authentication. Discovery paths
// and the MCP initialize handshake are exempt; everything else requires a
// token. When the body is inspected it is put back so that later readers see
// the same bytes from the same position.
//
// The returned error explains a RequiresAuth outcome for logging. It never
// changes the outcome.
func Classify(r *http.Request) (Classification, error) {
	if isDiscoveryPath(r.URL.Path) {
		return Exempt, nil
	}
	if r.Method != http.MethodPost {
		return RequiresAuth, errNotPost
	}
	if r.ContentLength <= 0 || r.ContentLength > MaxHandshakePeek || r.Body == nil {
		return RequiresAuth, errBodyLength
	}

	body, err := peekBody(r, MaxHandshakePeek)
	if err != nil {
		return RequiresAuth, fmt.Errorf("read body: %w", err)
	}
	if len(body) > MaxHandshakePeek {
		return RequiresAuth, errBodyTooLarge
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return RequiresAuth, fmt.Errorf("%w: %v", errEnvelopeDecode, err)
	}
	if env.Method == nil {
		return RequiresAuth, errNoMethod
	}
	if !strings.EqualFold(*env.Method, initializeMethod) {
		return RequiresAuth, errNotInitialize
	}
	return Exempt, nil
}

func isDiscoveryPath(p string) bool {
	p = strings.ToLower(p)
	return strings.HasPrefix(p, wellKnownPrefix) || p == oauth2MetaPath
}

// peekBody reads at most limit+1 bytes from r.Body and replaces r.Body with a
// reader that replays what was read followed by whatever remains unread.
func peekBody(r *http.Request, limit int64) ([]byte, error) {
	orig := r.Body
	buf, err := io.ReadAll(io.LimitReader(orig, limit+1))
	r.Body = &replayBody{Reader: io.MultiReader(bytes.NewReader(buf), orig), closer: orig}
	return buf, err
}

type replayBody struct {
	io.Reader
	closer io.Closer
}

func (b *replayBody) Close() error { return b.closer.Close() }
