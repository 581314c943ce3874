// Package etcd provides locks backed by etcd leases, so a single holder is
// elected across every replica sharing the cluster.
package etcd

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/etcd/api/v3/mvccpb"
	v3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/goosy-labs/goosy-vault/pkg/lock"
)

var (
	errManagerClosed = errors.New("lock manager is closed")
)

// LockManager hands out locks sharing one lease. The lease is renewed for as
// long as the manager lives, and recreated if it expires.
type LockManager struct {
	log     *logrus.Entry
	client  *v3.Client
	rootKey string
	ttl     int

	closeOnce sync.Once
	closeCh   chan struct{}

	sessionMu sync.Mutex
	session   *concurrency.Session
}

// NewLockManager creates a lock manager storing locks under rootKey. The ttl
// bounds how long a crashed holder keeps a lock, and must be within [1s, 60s].
func NewLockManager(client *v3.Client, rootKey string, ttl time.Duration) (*LockManager, error) {
	if ttl < time.Second || ttl > time.Minute {
		return nil, errors.Errorf("invalid lock ttl %v, must be within [1s, 60s]", ttl)
	}

	lm := &LockManager{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "lock/etcd",
			"root": rootKey,
		}),
		client:  client,
		rootKey: rootKey,
		ttl:     int(ttl.Round(time.Second).Seconds()),
		closeCh: make(chan struct{}),
	}

	session, err := lm.newSession()
	if err != nil {
		return nil, errors.Wrap(err, "error creating etcd session")
	}
	lm.session = session

	go lm.keepSession()

	return lm, nil
}

func (lm *LockManager) newSession() (*concurrency.Session, error) {
	return concurrency.NewSession(
		lm.client,
		concurrency.WithTTL(lm.ttl),
		concurrency.WithContext(v3.WithRequireLeader(context.Background())),
	)
}

func (lm *LockManager) currentSession() *concurrency.Session {
	lm.sessionMu.Lock()
	defer lm.sessionMu.Unlock()
	return lm.session
}

// keepSession replaces the session whenever its lease is lost. Locks held
// under the old session are reported lost by their own watchers.
func (lm *LockManager) keepSession() {
	for {
		session := lm.currentSession()
		if session == nil {
			return
		}

		select {
		case <-lm.closeCh:
			return
		case <-session.Done():
		}

		lm.log.Info("etcd session expired, recreating")

		for {
			replacement, err := lm.newSession()
			if err == nil {
				lm.sessionMu.Lock()
				if lm.session == nil {
					lm.sessionMu.Unlock()
					replacement.Close()
					return
				}
				lm.session = replacement
				lm.sessionMu.Unlock()
				break
			}

			lm.log.WithError(err).Warn("failure recreating etcd session, retrying")
			select {
			case <-lm.closeCh:
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// Create implements lock.Manager.Create
func (lm *LockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	if lm.currentSession() == nil {
		return nil, errManagerClosed
	}

	key := path.Join(lm.rootKey, name)
	return &Lock{
		log: lm.log.WithField("key", key),
		lm:  lm,
		key: key,
	}, nil
}

// Close revokes the lease, releasing every lock the manager's locks hold
func (lm *LockManager) Close() {
	lm.closeOnce.Do(func() {
		close(lm.closeCh)

		lm.sessionMu.Lock()
		defer lm.sessionMu.Unlock()

		if err := lm.session.Close(); err != nil {
			lm.log.WithError(err).Warn("failure closing etcd session")
		}
		lm.session = nil
	})
}

// Lock is an etcd mutex under the manager's current session
type Lock struct {
	log *logrus.Entry
	lm  *LockManager
	key string

	mu     sync.Mutex
	mutex  *concurrency.Mutex
	cancel context.CancelFunc
}

// Acquire implements lock.DistributedLock.Acquire
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	return l.acquire(ctx, func(ctx context.Context, m *concurrency.Mutex) error {
		return m.Lock(ctx)
	})
}

// TryAcquire implements lock.DistributedLock.TryAcquire
func (l *Lock) TryAcquire(ctx context.Context) (<-chan struct{}, error) {
	return l.acquire(ctx, func(ctx context.Context, m *concurrency.Mutex) error {
		err := m.TryLock(ctx)
		if err == concurrency.ErrLocked {
			return lock.ErrLockHeld
		}
		return err
	})
}

func (l *Lock) acquire(ctx context.Context, lockFn func(context.Context, *concurrency.Mutex) error) (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mutex != nil {
		return nil, lock.ErrAlreadyAcquired
	}

	session := l.lm.currentSession()
	if session == nil {
		return nil, errManagerClosed
	}

	mutex := concurrency.NewMutex(session, l.key)
	if err := lockFn(ctx, mutex); err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	l.mutex = mutex
	l.cancel = cancel

	lostCh := make(chan struct{})
	go l.watch(watchCtx, session, mutex, lostCh)

	l.log.Debug("lock acquired")
	return lostCh, nil
}

// watch closes lostCh once the lock can no longer be trusted, then releases it
func (l *Lock) watch(ctx context.Context, session *concurrency.Session, mutex *concurrency.Mutex, lostCh chan struct{}) {
	defer l.release(mutex)
	defer close(lostCh)

	watchCh := session.Client().Watch(
		v3.WithRequireLeader(ctx),
		mutex.Key(),
		v3.WithRev(mutex.Header().Revision+1),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.Done():
			l.log.Warn("etcd session ended, lock lost")
			return
		case resp, ok := <-watchCh:
			if !ok {
				return
			}
			if err := resp.Err(); err != nil {
				l.log.WithError(err).Warn("failure watching lock key, lock lost")
				return
			}
			for _, event := range resp.Events {
				if event.Type == mvccpb.DELETE {
					l.log.Warn("lock key deleted, lock lost")
					return
				}
			}
		}
	}
}

// release unlocks mutex if it's still the held mutex
func (l *Lock) release(mutex *concurrency.Mutex) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mutex != mutex {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mutex.Unlock(ctx); err != nil {
		l.log.WithError(err).Warn("failure unlocking")
	}

	l.cancel()
	l.mutex = nil
	l.cancel = nil
}

// Unlock implements lock.DistributedLock.Unlock
func (l *Lock) Unlock(_ context.Context) error {
	l.mu.Lock()
	mutex := l.mutex
	l.mu.Unlock()

	if mutex == nil {
		return nil
	}

	l.release(mutex)
	return nil
}

// IsLocked implements lock.DistributedLock.IsLocked
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mutex != nil
}
