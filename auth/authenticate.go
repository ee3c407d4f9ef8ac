package auth

import (
	"errors"
	"log/slog"
	"net/http"
)

// Authenticate returns middleware that validates the bearer token, if any,
// with authn and records the outcome for the Gate. It never rejects a
// request itself.
func Authenticate(authn Authenticator, options ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(options)
	log := cfg.logger
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := ExtractBearer(r.Header.Get(authorizationHeader))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			ui, err := authn.CheckAuthentication(ctx, tok)
			if err != nil {
				if errors.Is(err, ErrUnauthorized) {
					log.InfoContext(ctx, "auth.check.fail", slog.String("err", err.Error()))
				} else {
					log.WarnContext(ctx, "auth.check.err", slog.String("err", err.Error()))
				}
				next.ServeHTTP(w, r.WithContext(WithValidation(ctx, validation{tok: tok})))
				return
			}

			log.DebugContext(ctx, "auth.ok", slog.String("user_id", ui.UserID()))
			ctx = WithValidation(ctx, validation{ok: true, tok: tok})
			ctx = WithUserInfo(ctx, ui)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
