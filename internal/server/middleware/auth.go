package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tashu22-hub/BridgeOn/internal/auth"
)

// NewAuthMiddleware guards the REST API: requests must carry a valid bearer
// token. The verified subject and role are stored on the request metadata for
// downstream handlers. The WebSocket endpoint does not use this middleware;
// socket authentication is deferred and happens over the connection itself.
func NewAuthMiddleware(logger *slog.Logger, tokens *auth.TokenManager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// couldn't extract metadata from request so something went wrong
			// with previous middlewares
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			authHeader := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" || tokenString == authHeader {
				logger.Warn("Request missing bearer token", "ip", reqMeta.IP)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				logger.Warn("Invalid token presented", "ip", reqMeta.IP, slog.Any("error", err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			reqMeta.UserID = claims.Subject
			reqMeta.Role = claims.Role
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose verified role is not admin. Must run
// after NewAuthMiddleware.
func RequireAdmin(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok || reqMeta.Role != "admin" {
				http.Error(w, "Admin access required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
