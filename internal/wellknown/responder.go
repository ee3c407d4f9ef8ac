package wellknown

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/smartmcp/appserver-mcp/auth"
)

var jsonMediaTypes = []contenttype.MediaType{contenttype.NewMediaType("application/json")}

// Responder serves the discovery documents. Documents are rendered once from
// the options snapshot, so every response for a path is byte-identical.
type Responder struct {
	enabled bool
	docs    map[string][]byte
}

// NewResponder renders the discovery documents for opts.
func NewResponder(opts auth.Options) (*Responder, error) {
	opts = opts.Copy()
	docs := map[string]any{
		ProtectedResourcePath:   NewProtectedResourceMetadata(opts),
		AuthorizationServerPath: NewAuthorizationServerMetadata(opts),
		OpenIDConfigurationPath: NewOpenIDConfiguration(opts),
	}
	r := &Responder{enabled: opts.Enabled, docs: make(map[string][]byte, len(docs))}
	for path, doc := range docs {
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", path, err)
		}
		r.docs[path] = append(b, '\n')
	}
	return r, nil
}

// Register mounts the discovery endpoints on mux. Nothing is mounted when
// authentication is disabled.
func (rs *Responder) Register(mux *http.ServeMux) {
	if !rs.enabled {
		return
	}
	for path, body := range rs.docs {
		get := rs.serveDocument(body)
		mux.HandleFunc("GET "+path, get)
		mux.HandleFunc("OPTIONS "+path, handlePreflight)
	}
	// RFC 9728 clients may append the resource path, e.g.
	// /.well-known/oauth-protected-resource/mcp.
	mux.HandleFunc("GET "+ProtectedResourcePath+"/", rs.serveDocument(rs.docs[ProtectedResourcePath]))
	mux.HandleFunc("OPTIONS "+ProtectedResourcePath+"/", handlePreflight)
}

// Document returns the rendered document for path.
func (rs *Responder) Document(path string) ([]byte, bool) {
	b, ok := rs.docs[path]
	return b, ok
}

func (rs *Responder) serveDocument(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// CORS: allow cross-origin browser fetches of the well-known metadata
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Vary", "Origin")
		if _, _, err := contenttype.GetAcceptableMediaType(r, jsonMediaTypes); err != nil {
			http.Error(w, "metadata is only available as application/json", http.StatusNotAcceptable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
	w.Header().Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}
