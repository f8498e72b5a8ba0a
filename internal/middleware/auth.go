package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/parentpass/adminchat/backend/pkg/utils"
)

// Auth enforces the static admin API key via Authorization: Bearer. The
// health endpoint stays open for load balancer probes.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			if apiKey == "" {
				utils.RespondError(w, http.StatusInternalServerError, "PP_API_KEY not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.RespondError(w, http.StatusForbidden, "missing API key")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				utils.RespondError(w, http.StatusForbidden, "invalid authorization header")
				return
			}

			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiKey)) != 1 {
				utils.RespondError(w, http.StatusForbidden, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
