package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellspring/internal/data"
	"wellspring/internal/logger"
)

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	Create(ctx context.Context, user *data.User) error
	GetByID(ctx context.Context, id int64) (*data.User, error)
	GetByName(ctx context.Context, name string) (*data.User, error)
	GetByEmail(ctx context.Context, email string) (*data.User, error)
	UpdateProfile(ctx context.Context, user *data.User) error
	SetVerified(ctx context.Context, id int64) error
	SoftDelete(ctx context.Context, id int64) error
}

// UserService manages account identities. The sentinel accounts seeded by
// the schema are read-only through this service.
type UserService struct {
	repo UserRepository
	log  logger.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo UserRepository, log logger.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// Create registers a new account. The email is lowercased before storage;
// the schema rejects anything else.
func (s *UserService) Create(ctx context.Context, name, email string, isBot bool) (*data.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, fmt.Errorf("user name must not be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address %q", email)
	}

	user := &data.User{Name: name, Email: email, IsBot: isBot}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{"user_id": user.ID, "name": user.Name}).Info("user created")
	return user, nil
}

// Get returns a user by ID. Soft-deleted users report ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*data.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active() {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetByName returns a user by name.
func (s *UserService) GetByName(ctx context.Context, name string) (*data.User, error) {
	user, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile writes a user's profile fields. Sentinel accounts cannot
// be changed.
func (s *UserService) UpdateProfile(ctx context.Context, user *data.User) error {
	if user.Sentinel() {
		return ErrSentinelUser
	}
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Verify marks a user's email as verified.
func (s *UserService) Verify(ctx context.Context, id int64) error {
	if id < data.FirstRegularUserID {
		return ErrSentinelUser
	}
	if err := s.repo.SetVerified(ctx, id); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Delete soft-deletes an account. Revisions, ratings and credits keep
// their references to it.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id < data.FirstRegularUserID {
		return ErrSentinelUser
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.log.With(map[string]interface{}{"user_id": id}).Info("user deleted")
	return nil
}
