// Package flight deduplicates concurrent identical requests.
//
// The first caller for a key starts the work; later callers for the same key
// share its result. The work runs on a context detached from the first
// caller, so one caller giving up does not fail the others. Every wait is
// bounded: when the timeout passes the caller gets its fallback value back
// instead of blocking.
package flight

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds how long a caller waits for a shared result.
const DefaultTimeout = 10 * time.Second

// ErrTimeout is returned with the fallback value when the shared result did
// not arrive in time. The work keeps running and later callers may join it.
var ErrTimeout = errors.New("flight: timed out waiting for shared result")

// Group deduplicates calls returning V.
type Group[V any] struct {
	g       singleflight.Group
	timeout time.Duration
}

// New creates a Group whose waits are bounded by timeout (DefaultTimeout
// when non-positive).
func New[V any](timeout time.Duration) *Group[V] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Group[V]{timeout: timeout}
}

// Do runs fn once for all concurrent callers with the same key.
//
// On timeout or cancellation of ctx, Do returns fallback together with
// ErrTimeout or the context error. shared reports whether the result was
// produced for another caller too.
func (g *Group[V]) Do(ctx context.Context, key string, fallback V, fn func(ctx context.Context) (V, error)) (v V, shared bool, err error) {
	detached := context.WithoutCancel(ctx)
	ch := g.g.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Shared, res.Err
		}
		v, _ := res.Val.(V)
		return v, res.Shared, nil
	case <-timer.C:
		return fallback, false, ErrTimeout
	case <-ctx.Done():
		return fallback, false, ctx.Err()
	}
}

// Forget drops the in-flight entry for key so the next call starts fresh
// work instead of joining a slow one.
func (g *Group[V]) Forget(key string) {
	g.g.Forget(key)
}
