package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"personal-tracker/internal/auth"
	"personal-tracker/internal/models"
	"personal-tracker/internal/storage"
)

const msgCredentialsRequired = "Username and password required"

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming spends a bcrypt comparison so that unknown usernames take as
// long to reject as wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("not-a-real-password")
	})
	auth.CheckPassword(password, dummyHash)
}

// Register creates a new user with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid(msgCredentialsRequired)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, invalid(fmt.Sprintf("Username must be at most %d characters", MaxUsernameLength))
	}

	if _, err := s.db.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.db.CreateUser(ctx, username, hash)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User registered: %s", user.Username)
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid(msgCredentialsRequired)
	}

	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			equalizeTiming(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		s.log.WithField("user_id", user.ID).Warn("Password verification failed")
		return nil, ErrInvalidCredentials
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Username)
	return user, nil
}
