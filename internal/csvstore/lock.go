package csvstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

const defaultLockRetryDelay = 10 * time.Millisecond

// fileLock is an exclusive lock named after a data file.
//
// flock only excludes other open file descriptions, and a single *flock.Flock
// treats a second Lock as a no-op, so goroutines sharing one store are
// serialized by sem before they contend for the OS lock.
type fileLock struct {
	sem        chan struct{}
	file       *flock.Flock
	retryDelay time.Duration
}

func newFileLock(path string, retryDelay time.Duration) *fileLock {
	return &fileLock{
		sem:        make(chan struct{}, 1),
		file:       flock.New(path),
		retryDelay: retryDelay,
	}
}

// acquire blocks until the lock is held or ctx is done.
// The returned release func must be called exactly once.
func (l *fileLock) acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ok, err := l.file.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		<-l.sem
		return nil, fmt.Errorf("flock.TryLockContext(%s) > %w", l.file.Path(), err)
	}
	if !ok {
		<-l.sem
		return nil, fmt.Errorf("lock %s was not acquired", l.file.Path())
	}

	return func() {
		if err := l.file.Unlock(); err != nil {
			slog.Default().Warn("failed to release a file lock",
				slog.String("path", l.file.Path()),
				slog.Any("error", err),
			)
		}
		<-l.sem
	}, nil
}
