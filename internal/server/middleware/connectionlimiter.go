package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Tashu22-hub/BridgeOn/pkg/config"
)

// IPConnectionCounter reports the number of live connections for a client IP.
type IPConnectionCounter func(ipAddr string) int

// NewConnectionLimiter bounds concurrent WebSocket connections per client IP.
// Socket authentication is deferred, so the user is unknown at upgrade time
// and the limit has to be keyed by address.
func NewConnectionLimiter(
	logger *slog.Logger,
	counter IPConnectionCounter,
	cfg config.ConnectionLimitConfig,
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.MaxPerIP <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				logger.Error("Connection limiter could not find request metadata in context. Check middleware order.")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			count := counter(reqMeta.IP)
			if count < cfg.MaxPerIP {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("Connection limit reached for IP", slog.String("ip", reqMeta.IP), slog.Int("count", count))
			http.Error(w, "Too Many Active Connections", http.StatusTooManyRequests)
		})
	}
}
