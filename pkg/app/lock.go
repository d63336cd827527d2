package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrStoreBusy is returned when another process holds the store lock.
var ErrStoreBusy = errors.New("store is locked by another writer")

// lockStore takes the exclusive writer lock next to the database file and
// returns its release func. In-memory stores need no lock.
func lockStore(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	if path == "" || path == ":memory:" {
		return func() {}, nil
	}
	l := flock.New(path + ".lock")
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire store lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (lock: %s)", ErrStoreBusy, l.Path())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
