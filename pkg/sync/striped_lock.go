package sync

import (
	"sort"
	base "sync"
)

const (
	pointsPerStripe = 200
)

// StripedLock maps an unbounded key space onto a fixed set of mutexes. Keys
// that collide share a mutex, which bounds memory at the cost of occasional
// false contention.
type StripedLock struct {
	locks []base.Mutex
	ring  *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks: make([]base.Mutex, stripes),
		ring:  newRing(stripes, pointsPerStripe),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key string) *base.Mutex {
	return &l.locks[l.ring.stripe([]byte(key))]
}

// LockAll locks every stripe covering keys and returns the unlock function.
//
// Stripes are acquired once each in ascending order, so two callers locking
// overlapping key sets can't deadlock, and keys that share a stripe don't
// self-deadlock.
func (l *StripedLock) LockAll(keys ...string) func() {
	seen := make(map[int]struct{}, len(keys))
	stripes := make([]int, 0, len(keys))
	for _, key := range keys {
		stripe := l.ring.stripe([]byte(key))
		if _, ok := seen[stripe]; ok {
			continue
		}
		seen[stripe] = struct{}{}
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	for _, stripe := range stripes {
		l.locks[stripe].Lock()
	}

	return func() {
		for i := len(stripes) - 1; i >= 0; i-- {
			l.locks[stripes[i]].Unlock()
		}
	}
}
