package service

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/scrypt"

	"wellspring/internal/data"
	"wellspring/internal/logger"
)

// AuthRepository defines the interface for credential, login-attempt and
// session rows.
type AuthRepository interface {
	SetPassword(ctx context.Context, p *data.Password) error
	GetPassword(ctx context.Context, userID int64) (*data.Password, error)
	RecordLoginAttempt(ctx context.Context, attempt *data.LoginAttempt) error
	ListLoginAttempts(ctx context.Context, userID int64) ([]*data.LoginAttempt, error)
	CreateSession(ctx context.Context, s *data.Session) error
	GetSessionByUser(ctx context.Context, userID int64) (*data.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*data.Session, error)
	DeleteSessionByUser(ctx context.Context, userID int64) (bool, error)
}

// UserLookup is the slice of the user repository the auth service needs
// to resolve login identifiers.
type UserLookup interface {
	GetByName(ctx context.Context, name string) (*data.User, error)
	GetByEmail(ctx context.Context, email string) (*data.User, error)
}

// Password length bounds. The upper bound caps the scrypt input; the
// lower one is a floor on entropy.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 8192
)

// Current scrypt cost parameters. Stored per credential row so they can
// be raised without invalidating existing hashes.
const (
	scryptLogN   = 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// tokenLen is the byte length of session tokens before hex encoding.
const tokenLen = 32

// failurePause is how long a failed login is stalled to slow guessing.
const failurePause = 500 * time.Millisecond

// AuthService manages credentials, the login audit log and sessions.
// Every authentication attempt is recorded, successful or not.
type AuthService struct {
	repo      AuthRepository
	users     UserLookup
	lifetime  time.Duration
	blacklist map[string]bool
	log       logger.Logger

	// pause stalls failed logins; replaced in tests.
	pause func()
}

// NewAuthService creates a new AuthService. Session tokens expire after
// lifetime.
func NewAuthService(repo AuthRepository, users UserLookup, lifetime time.Duration, log logger.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		users:     users,
		lifetime:  lifetime,
		blacklist: make(map[string]bool),
		log:       log,
		pause:     func() { time.Sleep(failurePause) },
	}
}

// LoadBlacklist reads a newline-separated list of forbidden passwords.
// A missing path is not an error; the check is simply skipped.
func (s *AuthService) LoadBlacklist(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("password blacklist file missing, check disabled")
			return nil
		}
		return fmt.Errorf("failed to open password blacklist: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			s.blacklist[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read password blacklist: %w", err)
	}
	s.log.With(map[string]interface{}{"entries": len(s.blacklist)}).Info("password blacklist loaded")
	return nil
}

// checkPassword validates a candidate password against the length bounds
// and the blacklist.
func (s *AuthService) checkPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if s.blacklist[password] {
		return ErrPasswordBlacklisted
	}
	return nil
}

// SetPassword derives and stores a new credential record for a user,
// replacing any existing one.
func (s *AuthService) SetPassword(ctx context.Context, userID int64, password string) error {
	if err := s.checkPassword(password); err != nil {
		return err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := scrypt.Key([]byte(password), salt, 1<<scryptLogN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return fmt.Errorf("failed to derive password hash: %w", err)
	}

	return s.repo.SetPassword(ctx, &data.Password{
		UserID: userID,
		Hash:   hash,
		Salt:   salt,
		LogN:   scryptLogN,
		ParamR: scryptR,
		ParamP: scryptP,
	})
}

// verify re-derives the hash with the parameters stored on the credential
// row and compares in constant time.
func verify(p *data.Password, password string) (bool, error) {
	hash, err := scrypt.Key([]byte(password), p.Salt, 1<<p.LogN, int(p.ParamR), int(p.ParamP), len(p.Hash))
	if err != nil {
		return false, fmt.Errorf("failed to derive password hash: %w", err)
	}
	return subtle.ConstantTimeCompare(hash, p.Hash) == 1, nil
}

// Login authenticates a user by name or email and returns their session.
// The attempt is recorded in the audit log either way; failures are
// stalled and report the uniform ErrAuthFailed.
func (s *AuthService) Login(ctx context.Context, identifier, password string, remoteAddr *string) (*data.Session, error) {
	user := s.lookup(ctx, identifier)

	attempt := &data.LoginAttempt{
		UsernameOrEmail: identifier,
		RemoteAddress:   remoteAddr,
	}
	if user != nil {
		attempt.UserID = &user.ID
	}

	ok := false
	if user != nil && user.Active() {
		cred, err := s.repo.GetPassword(ctx, user.ID)
		if err == nil {
			ok, err = verify(cred, password)
			if err != nil {
				return nil, err
			}
		} else if !errors.Is(err, data.ErrNotFound) {
			return nil, err
		}
	}
	attempt.Success = ok
	if err := s.repo.RecordLoginAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	if !ok {
		s.log.With(map[string]interface{}{"identifier": identifier}).Warn("login failed")
		s.pause()
		return nil, ErrAuthFailed
	}
	return s.session(ctx, user.ID, attempt, remoteAddr)
}

// lookup resolves a login identifier to a user. Identifiers containing
// an @ are treated as email addresses.
func (s *AuthService) lookup(ctx context.Context, identifier string) *data.User {
	var user *data.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.users.GetByName(ctx, identifier)
	}
	if err != nil {
		return nil
	}
	return user
}

// session returns the user's existing unexpired session or replaces it
// with a fresh one tied to the login attempt.
func (s *AuthService) session(ctx context.Context, userID int64, attempt *data.LoginAttempt, remoteAddr *string) (*data.Session, error) {
	existing, err := s.repo.GetSessionByUser(ctx, userID)
	if err == nil && !existing.Expired(time.Now()) {
		return existing, nil
	}
	if err != nil && !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if _, err := s.repo.DeleteSessionByUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	session := &data.Session{
		UserID:         userID,
		Token:          token,
		IPAddress:      remoteAddr,
		LoginAttemptID: attempt.ID,
		ExpiresAt:      time.Now().Add(s.lifetime),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{"user_id": userID}).Info("session created")
	return session, nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CheckToken resolves a bearer token to its session, rejecting expired
// ones with ErrAuthFailed.
func (s *AuthService) CheckToken(ctx context.Context, token string) (*data.Session, error) {
	session, err := s.repo.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrAuthFailed
		}
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, ErrAuthFailed
	}
	return session, nil
}

// Logout removes a user's session. Returns true if one was present.
func (s *AuthService) Logout(ctx context.Context, userID int64) (bool, error) {
	return s.repo.DeleteSessionByUser(ctx, userID)
}

// LoginHistory returns a user's login attempts, newest first.
func (s *AuthService) LoginHistory(ctx context.Context, userID int64) ([]*data.LoginAttempt, error) {
	return s.repo.ListLoginAttempts(ctx, userID)
}
