package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"homio/internal/domain"
)

type ctxKey int

const profileKey ctxKey = iota

// RequireProfile resolves the bearer token through the profile directory and
// stores the caller's profile in the request context. Requests without a
// valid token get a 401 envelope.
func RequireProfile(dir domain.ProfileDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeFail(w, http.StatusUnauthorized, "authentication required")
				return
			}
			p, err := dir.Authenticate(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Msg("token authentication failed")
				writeFail(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey, p)))
		})
	}
}

func ProfileFrom(ctx context.Context) (domain.Profile, bool) {
	p, ok := ctx.Value(profileKey).(domain.Profile)
	return p, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
