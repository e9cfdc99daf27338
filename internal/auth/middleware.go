package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AdminChecker is satisfied by *Resolver.
type AdminChecker interface {
	IsAdmin(ctx context.Context, identity string) bool
}

// Identify establishes the request principal from a bearer token when a
// secret is configured, otherwise from the trusted header set by the host.
func Identify(header, secret string, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var p Principal
			if h := r.Header.Get("Authorization"); secret != "" && strings.HasPrefix(h, "Bearer ") {
				claims, err := Verify(secret, strings.TrimPrefix(h, "Bearer "))
				if err != nil {
					deny(w, http.StatusUnauthorized, "invalid token")
					return
				}
				p = claims
			} else if header != "" {
				p.Identity = strings.TrimSpace(r.Header.Get(header))
			}
			if p.Identity == "" {
				deny(w, http.StatusUnauthorized, "missing identity")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func RequireAdmin(checker AdminChecker, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := Identity(r.Context())
			if !checker.IsAdmin(r.Context(), identity) {
				lg.Warnw("unauthorized admin access attempt", "identity", identity, "path", r.URL.Path)
				deny(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
