package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// PrincipalHeader carries the authenticated caller identity, set by the
// identity gateway in front of this service. The core never trusts a
// principal carried in a request body.
const PrincipalHeader = "X-Principal"

type contextKey string

const principalKey = contextKey("principal")

// Auth is a middleware factory that extracts the caller principal from the
// trusted gateway header and rejects requests without one.
func Auth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := r.Header.Get(PrincipalHeader)
			if principal == "" {
				logger.Warn("request without principal", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				http.Error(w, "Unauthorized: caller identity required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, domain.Principal(principal))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFrom returns the principal stored by Auth.
func CallerFrom(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(domain.Principal)
	return principal, ok
}
