// Package tracker holds the business rules of the personal tracker: account
// registration and login, the expense ledger, the study checklist and the
// dashboard aggregation. Every query it issues is scoped to the calling user.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"personal-tracker/internal/models"
	"personal-tracker/internal/storage"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = storage.ErrNotFound
	// ErrUsernameTaken is returned by Register for an existing username.
	ErrUsernameTaken = storage.ErrUsernameTaken
	// ErrInvalidCredentials is returned by Authenticate for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries a user-facing message about rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// Service handles business logic
type Service struct {
	db  *storage.DB
	log *logrus.Logger
	now func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests that pin "the current month".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService initializes a new service
func NewService(db *storage.DB, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{db: db, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// User returns the user with the given id.
func (s *Service) User(ctx context.Context, id int64) (*models.User, error) {
	return s.db.GetUserByID(ctx, id)
}

// UserCount returns the number of registered users.
func (s *Service) UserCount(ctx context.Context) (int, error) {
	return s.db.UserCount(ctx)
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
