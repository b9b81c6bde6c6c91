//go:build unit

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wellspring/internal/config"
	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/service"
)

type memUserStore struct {
	users  map[int64]*data.User
	nextID int64
}

var _ service.UserRepository = (*memUserStore)(nil)
var _ service.UserLookup = (*memUserStore)(nil)
var _ middleware.UserGetter = (*userGetter)(nil)

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*data.User), nextID: data.FirstRegularUserID - 1}
}

func (s *memUserStore) Create(ctx context.Context, user *data.User) error {
	for _, u := range s.users {
		if u.Name == user.Name || u.Email == user.Email {
			return data.ErrExists
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) GetByID(ctx context.Context, id int64) (*data.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memUserStore) GetByName(ctx context.Context, name string) (*data.User, error) {
	for _, u := range s.users {
		if u.Name == name {
			copied := *u
			return &copied, nil
		}
	}
	return nil, data.ErrNotFound
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*data.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, data.ErrNotFound
}

func (s *memUserStore) UpdateProfile(ctx context.Context, user *data.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return data.ErrNotFound
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memUserStore) SetVerified(ctx context.Context, id int64) error {
	u, ok := s.users[id]
	if !ok {
		return data.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (s *memUserStore) SoftDelete(ctx context.Context, id int64) error {
	u, ok := s.users[id]
	if !ok {
		return data.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

type memAuthStore struct {
	passwords map[int64]*data.Password
	attempts  []*data.LoginAttempt
	sessions  map[int64]*data.Session
}

var _ service.AuthRepository = (*memAuthStore)(nil)

func newMemAuthStore() *memAuthStore {
	return &memAuthStore{
		passwords: make(map[int64]*data.Password),
		sessions:  make(map[int64]*data.Session),
	}
}

func (s *memAuthStore) SetPassword(ctx context.Context, p *data.Password) error {
	copied := *p
	s.passwords[p.UserID] = &copied
	return nil
}

func (s *memAuthStore) GetPassword(ctx context.Context, userID int64) (*data.Password, error) {
	p, ok := s.passwords[userID]
	if !ok {
		return nil, data.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *memAuthStore) RecordLoginAttempt(ctx context.Context, attempt *data.LoginAttempt) error {
	attempt.ID = int64(len(s.attempts) + 1)
	attempt.AttemptedAt = time.Now()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *memAuthStore) ListLoginAttempts(ctx context.Context, userID int64) ([]*data.LoginAttempt, error) {
	var out []*data.LoginAttempt
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].UserID != nil && *s.attempts[i].UserID == userID {
			out = append(out, s.attempts[i])
		}
	}
	return out, nil
}

func (s *memAuthStore) CreateSession(ctx context.Context, session *data.Session) error {
	session.ID = int64(len(s.sessions) + 1)
	session.CreatedAt = time.Now()
	s.sessions[session.UserID] = session
	return nil
}

func (s *memAuthStore) GetSessionByUser(ctx context.Context, userID int64) (*data.Session, error) {
	session, ok := s.sessions[userID]
	if !ok {
		return nil, data.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *memAuthStore) GetSessionByToken(ctx context.Context, token string) (*data.Session, error) {
	for _, session := range s.sessions {
		if session.Token == token {
			copied := *session
			return &copied, nil
		}
	}
	return nil, data.ErrNotFound
}

func (s *memAuthStore) DeleteSessionByUser(ctx context.Context, userID int64) (bool, error) {
	if _, ok := s.sessions[userID]; !ok {
		return false, nil
	}
	delete(s.sessions, userID)
	return true, nil
}

// userGetter adapts the user service to the authenticator interface.
type userGetter struct{ users *service.UserService }

func (g *userGetter) Get(ctx context.Context, id int64) (*data.User, error) {
	return g.users.Get(ctx, id)
}

// denyAnonymousWrites stands in for the policy engine: anonymous callers
// may read anything, log in and register, nothing else.
func denyAnonymousWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := middleware.GetUserInfo(r.Context())
		if info.Anonymous() && r.Method != http.MethodGet &&
			r.URL.Path != "/api/auth/login" && r.URL.Path != "/api/users" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setupRouter(t *testing.T) (http.Handler, *service.AuthService, *memUserStore) {
	t.Helper()
	log := logger.New(config.LogConfig{Level: "error", Format: "json"}, io.Discard)

	userStore := newMemUserStore()
	authStore := newMemAuthStore()

	users := service.NewUserService(userStore, log)
	auth := service.NewAuthService(authStore, userStore, time.Hour, log)

	h := Handlers{
		Auth: NewAuthHandler(auth, log),
		User: NewUserHandler(users, auth, log),
	}
	authn := middleware.Authenticator(auth, &userGetter{users: users})
	router := NewRouter(h, authn, denyAnonymousWrites, log)
	return router, auth, userStore
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterRegisterLoginLogout(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", "", map[string]any{
		"name":     "squirrelbird",
		"email":    "squirrel@example.com",
		"password": "blackmoonhowls",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating user, got %d: %s", rec.Code, rec.Body.String())
	}
	var created data.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created user: %v", err)
	}
	if created.ID < data.FirstRegularUserID {
		t.Fatalf("expected a regular user id, got %d", created.ID)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"identifier": "squirrel@example.com",
		"password":   "blackmoonhowls",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 logging in, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if login.UserID != created.ID {
		t.Errorf("expected session for user %d, got %d", created.ID, login.UserID)
	}
	if len(login.Token) != 64 {
		t.Errorf("expected a 64-char token, got %d chars", len(login.Token))
	}

	// The token authenticates follow-up requests.
	rec = doJSON(t, router, http.MethodGet, "/api/users/5/logins", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing logins, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Errorf("expected a successful attempt in the audit log, got %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/logout", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 logging out, got %d: %s", rec.Code, rec.Body.String())
	}

	// The session is gone; the token no longer authenticates.
	rec = doJSON(t, router, http.MethodGet, "/api/users/5/logins", login.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestRouterAnonymousAccess(t *testing.T) {
	router, _, userStore := setupRouter(t)

	user := &data.User{Name: "reader", Email: "reader@example.com"}
	if err := userStore.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	// Reads are open.
	rec := doJSON(t, router, http.MethodGet, "/api/users/5", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 reading a profile anonymously, got %d", rec.Code)
	}

	// Writes are not.
	rec = doJSON(t, router, http.MethodPut, "/api/users/5", "", map[string]any{"about": "hello"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 writing anonymously, got %d", rec.Code)
	}

	// A garbage token is rejected before the policy check.
	rec = doJSON(t, router, http.MethodGet, "/api/users/5", "deadbeef", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an unknown token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/5", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a non-bearer header, got %d", rec.Code)
	}
}

func TestRouterErrorMapping(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users/999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a missing user, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("expected an error message in the body, got %v", body)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/users/notanumber", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed id, got %d", rec.Code)
	}

	// Bad credentials map to 401 without leaking which part failed.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"identifier": "nobody",
		"password":   "wrongwrongwrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad credentials, got %d", rec.Code)
	}
}
