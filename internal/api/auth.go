package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type adminKey struct{}

// authenticate requires a known bearer token and stores the admin name.
// Every configured token is compared so timing does not reveal which matched.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		admin := ""
		for known, name := range s.tokens {
			if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
				admin = name
			}
		}
		if admin == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "unauthorized", "unknown token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey{}, admin)))
	})
}

// adminFrom returns the authenticated admin name.
func adminFrom(ctx context.Context) string {
	if name, ok := ctx.Value(adminKey{}).(string); ok {
		return name
	}
	return ""
}
