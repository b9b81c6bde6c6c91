package middleware

import (
	"context"
	"net/http"
	"strings"

	"wellspring/internal/data"
)

// SessionChecker resolves a bearer token to its session. Implemented by
// the auth service.
type SessionChecker interface {
	CheckToken(ctx context.Context, token string) (*data.Session, error)
}

// UserGetter loads the account behind a session. Implemented by the user
// service.
type UserGetter interface {
	Get(ctx context.Context, id int64) (*data.User, error)
}

// Authenticator resolves the Authorization header to a request identity.
// Requests without the header proceed as anonymous; a header with a bad
// or expired token is rejected outright.
func Authenticator(sessions SessionChecker, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(
					SetUserInfo(r.Context(), &UserInfo{Subject: "anonymous"})))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}
			session, err := sessions.CheckToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			user, err := users.Get(r.Context(), session.UserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			subject := "user"
			if user.ID == data.UserAdministrator {
				subject = "admin"
			}
			info := &UserInfo{UserID: user.ID, Name: user.Name, Subject: subject}
			next.ServeHTTP(w, r.WithContext(SetUserInfo(r.Context(), info)))
		})
	}
}
