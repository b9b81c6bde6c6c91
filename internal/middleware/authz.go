package middleware

import (
	"net/http"

	"github.com/casbin/casbin/v2"
)

// Authorizer enforces the casbin route policies against the identity the
// authenticator attached to the request.
func Authorizer(e *casbin.Enforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := GetUserInfo(r.Context()).Subject

			allowed, err := e.Enforce(subject, r.URL.Path, r.Method)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "authorization error")
				return
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
