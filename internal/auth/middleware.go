package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"school-service/pkg/response"
)

// Middleware rejects requests without a valid bearer token and puts the
// caller's claims in the request context.
func Middleware(log *slog.Logger, manager *Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing bearer token"))
				return
			}

			claims, err := manager.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Warn("Rejected invalid token", slog.String("path", r.URL.Path))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}
