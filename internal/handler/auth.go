package handler

import (
	"log/slog"
	"net/http"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/auth"
)

// AuthMiddleware resolves the caller once per request from the Authorization
// header, passed to the gate verbatim. No header means an anonymous caller;
// a header that does not authenticate stops the request with 401.
func AuthMiddleware(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")

			id, err := gate.Authenticate(r.Context(), token)
			if apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
				slog.Info("auth_rejected", "path", r.URL.Path, "ip", r.RemoteAddr, "error", err)
				writeError(w, http.StatusUnauthorized, "User is not authenticated", apperrors.CodeUnauthenticated)
				return
			}
			if err != nil {
				slog.Error("auth_lookup_failed", "path", r.URL.Path, "error", err)
				code := apperrors.CodeOf(err)
				writeError(w, apperrors.HTTPStatus(code), "Authentication unavailable", code)
				return
			}

			ctx := r.Context()
			if id != nil {
				ctx = auth.WithIdentity(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
