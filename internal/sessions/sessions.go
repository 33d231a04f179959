// Package sessions defines where login sessions live. The SQL store sits in
// package storage; Redis is the alternative for deployments that run several
// server processes.
package sessions

import (
	"context"
	"errors"
	"time"

	"personal-tracker/internal/models"
)

// ErrNoSession is returned when a token is unknown or its session expired.
var ErrNoSession = errors.New("session not found or expired")

// Store persists server-side sessions keyed by token.
type Store interface {
	Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	Lookup(ctx context.Context, token string) (*models.Session, error)
	Renew(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	CleanExpired(ctx context.Context) (int64, error)
}
