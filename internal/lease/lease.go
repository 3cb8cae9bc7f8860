// Package lease provides an optional single-writer lock around the
// fingerprint compare-and-persist step of a build attempt.
package lease

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned by Acquire when another holder owns the lease.
var ErrHeld = errors.New("lease: held by another attempt")

// Lease is an acquired lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out leases keyed by name. A lease expires on its own after
// ttl so a crashed holder cannot wedge later attempts.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Noop never blocks. Two racing attempts may both decide to build; their
// outputs go to distinct timestamped paths so the race only wastes work.
type Noop struct{}

// Acquire always succeeds.
func (Noop) Acquire(context.Context, string, time.Duration) (Lease, error) {
	return noopLease{}, nil
}

type noopLease struct{}

func (noopLease) Release(context.Context) error { return nil }
