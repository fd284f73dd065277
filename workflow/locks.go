package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// projectLocks is a keyed mutex: one holder per project, waiters give up
// when their context ends. Entries are dropped once nobody holds or waits.
type projectLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*projectLock
}

type projectLock struct {
	sem  chan struct{}
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[uuid.UUID]*projectLock)}
}

// Lock blocks until the project is free or ctx is done. The returned
// function releases the lock and must be called exactly once.
func (l *projectLocks) Lock(ctx context.Context, projectID uuid.UUID) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	lock, ok := l.locks[projectID]
	if !ok {
		lock = &projectLock{sem: make(chan struct{}, 1)}
		l.locks[projectID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lock.sem
				l.release(projectID, lock)
			})
		}, nil
	case <-ctx.Done():
		l.release(projectID, lock)
		return nil, ctx.Err()
	}
}

func (l *projectLocks) release(projectID uuid.UUID, lock *projectLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, projectID)
	}
}

// held reports how many projects currently have a holder or waiter.
func (l *projectLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
