// Package lock provides named locks that exclude holders across processes
package lock

import (
	"context"
	"errors"
)

var (
	// ErrLockHeld is returned by TryAcquire when another holder has the lock
	ErrLockHeld = errors.New("lock is held by another holder")

	// ErrAlreadyAcquired is returned when a lock handle is acquired twice
	ErrAlreadyAcquired = errors.New("lock handle is already acquired")
)

// Manager creates locks by name
type Manager interface {
	// Create creates an unlocked handle for the named lock
	Create(ctx context.Context, name string) (DistributedLock, error)
}

// DistributedLock is a handle to a named lock. A handle is not safe to
// Acquire concurrently; create one handle per concurrent holder.
type DistributedLock interface {
	// Acquire blocks until the lock is held or ctx is done.
	//
	// The returned channel is closed when the lock is lost, either through
	// Unlock, ctx ending, or the implementation detecting it may no longer
	// hold the lock.
	Acquire(ctx context.Context) (<-chan struct{}, error)

	// TryAcquire is Acquire without blocking. ErrLockHeld is returned when
	// another holder has the lock.
	TryAcquire(ctx context.Context) (<-chan struct{}, error)

	// Unlock releases the lock if held. It is idempotent.
	Unlock(ctx context.Context) error

	// IsLocked returns whether this handle holds the lock
	IsLocked() bool
}
