// Package local provides in process locks for single replica deployments and
// tests
package local

import (
	"context"
	"sync"

	"github.com/goosy-labs/goosy-vault/pkg/lock"
)

type manager struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLockManager returns a lock.Manager whose locks exclude holders within
// this process only
func NewLockManager() lock.Manager {
	return &manager{
		slots: make(map[string]chan struct{}),
	}
}

// Create implements lock.Manager.Create
func (m *manager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		m.slots[name] = slot
	}
	return &handle{slot: slot}, nil
}

type handle struct {
	slot chan struct{}

	mu     sync.Mutex
	lostCh chan struct{}
	stop   context.CancelFunc
}

// Acquire implements lock.DistributedLock.Acquire
func (h *handle) Acquire(ctx context.Context) (<-chan struct{}, error) {
	if h.IsLocked() {
		return nil, lock.ErrAlreadyAcquired
	}

	select {
	case h.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return h.held(ctx), nil
}

// TryAcquire implements lock.DistributedLock.TryAcquire
func (h *handle) TryAcquire(ctx context.Context) (<-chan struct{}, error) {
	if h.IsLocked() {
		return nil, lock.ErrAlreadyAcquired
	}

	select {
	case h.slot <- struct{}{}:
	default:
		return nil, lock.ErrLockHeld
	}
	return h.held(ctx), nil
}

func (h *handle) held(ctx context.Context) <-chan struct{} {
	watchCtx, stop := context.WithCancel(ctx)
	lostCh := make(chan struct{})

	h.mu.Lock()
	h.lostCh = lostCh
	h.stop = stop
	h.mu.Unlock()

	go func() {
		<-watchCtx.Done()
		h.release(lostCh)
	}()

	return lostCh
}

// release frees the slot if lostCh is still the current hold
func (h *handle) release(lostCh chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lostCh != lostCh {
		return
	}

	close(lostCh)
	h.lostCh = nil
	h.stop = nil
	<-h.slot
}

// Unlock implements lock.DistributedLock.Unlock
func (h *handle) Unlock(_ context.Context) error {
	h.mu.Lock()
	lostCh, stop := h.lostCh, h.stop
	h.mu.Unlock()

	if lostCh == nil {
		return nil
	}

	stop()
	h.release(lostCh)
	return nil
}

// IsLocked implements lock.DistributedLock.IsLocked
func (h *handle) IsLocked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lostCh != nil
}
