// Package auth guards operator endpoints with an API key.
package auth

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradesim/src/security"
)

type contextKey string

const CallerKey contextKey = "caller"

const APIKeyHeader = "X-API-Key"

func GetCallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(CallerKey).(string)
	return caller, ok && caller != ""
}

// RequireAPIKey rejects requests without a valid key. When no key hash is
// configured every request is rejected.
func RequireAPIKey(verifier *security.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !verifier.Enabled() {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			if !verifier.Verify(r.Header.Get(APIKeyHeader)) {
				logger.WithFields(map[string]interface{}{
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
				}).Warn("rejected request with invalid api key")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), CallerKey, "operator")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
