package mutex

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"sync"
)

const (
	threadKeyPattern = "court:%v:thread:%v"
	userKeyPattern   = "user:%v"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker serializes work on a key. The returned release func must be called
// exactly once, on every exit path.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

func ThreadKey(courtId, threadId int64) string {
	return fmt.Sprintf(threadKeyPattern, courtId, threadId)
}

// UserKey guards a user's weekly total across threads. Take it after the
// thread key, never before.
func UserKey(userId int64) string {
	return fmt.Sprintf(userKeyPattern, userId)
}

// Registry is an in-process Locker. Locks are created on first use and kept
// for the lifetime of the registry. It only serializes work inside a single
// process; use Redis when more than one instance is running.
type Registry struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]chan struct{})}
}

func (r *Registry) lock(key string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		r.locks[key] = l
	}
	return l
}

func (r *Registry) Acquire(ctx context.Context, key string) (func(), error) {
	l := r.lock(key)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Wrapf(ErrLockTimeout, "key %v: %v", key, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-l })
	}, nil
}

// Len returns the number of keys the registry has seen.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
