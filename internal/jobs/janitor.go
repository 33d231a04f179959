// Package jobs runs the background maintenance of the tracker.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"personal-tracker/internal/sessions"
)

// SessionJanitor periodically purges expired sessions from a store.
type SessionJanitor struct {
	store   sessions.Store
	log     *logrus.Logger
	cron    *cron.Cron
	timeout time.Duration
}

// NewSessionJanitor schedules Sweep on the given standard cron spec
// (five fields or a descriptor such as "@hourly").
func NewSessionJanitor(store sessions.Store, log *logrus.Logger, schedule string) (*SessionJanitor, error) {
	j := &SessionJanitor{
		store:   store,
		log:     log,
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		timeout: time.Minute,
	}
	if _, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		j.Sweep(ctx)
	}); err != nil {
		return nil, fmt.Errorf("schedule session cleanup %q: %w", schedule, err)
	}
	return j, nil
}

// Sweep deletes expired sessions once and returns how many were removed.
func (j *SessionJanitor) Sweep(ctx context.Context) int64 {
	n, err := j.store.CleanExpired(ctx)
	if err != nil {
		j.log.WithError(err).Error("Failed to clean expired sessions")
		return 0
	}
	if n > 0 {
		j.log.WithField("removed", n).Info("Expired sessions removed")
	}
	return n
}

// Start runs the scheduler in its own goroutine.
func (j *SessionJanitor) Start() {
	j.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish or ctx to expire.
func (j *SessionJanitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
