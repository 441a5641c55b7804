// Package store holds the lecturer client's state containers.
//
// Containers are plain structs built by the application root and passed to
// whoever needs them. Each one owns a mutex, a paged collection, a
// generation counter and a Guard:
//
//   - Responses are applied only if the generation they started under is
//     still current, so a slow reply never overwrites newer state.
//   - Optimistic mutations snapshot the collection, apply locally, and
//     restore the snapshot if the backend call fails.
//   - Destructive actions need an explicit confirmation flag.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JonMunkholm/unitrack/internal/kv"
	"github.com/JonMunkholm/unitrack/internal/paging"
)

// Options are shared by every container.
type Options struct {
	PageSize      int           // Client-side page size; paging.DefaultPageSize when zero
	DedupeTimeout time.Duration // Bound on waits for shared refreshes
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// persist writes a cache entry. Failures are logged and otherwise ignored;
// the cache only speeds up the next render.
func persist(ctx context.Context, logger *slog.Logger, store kv.Store, key string, v any) {
	if store == nil {
		return
	}
	if err := kv.SetJSON(ctx, store, key, v); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// restore reads a cache entry. A missing entry is not an error.
func restore[T any](ctx context.Context, store kv.Store, key string) (T, bool, error) {
	var zero T
	if store == nil {
		return zero, false, nil
	}
	v, err := kv.GetJSON[T](ctx, store, key)
	if errors.Is(err, kv.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// View is one rendered page of a container.
type View[T any] struct {
	Items  []T               `json:"items"`
	Totals paging.Aggregates `json:"totals"`
	Meta   paging.Meta       `json:"meta"`
}

func viewOf[T any](c *paging.Collection[T]) View[T] {
	return View[T]{
		Items:  c.Visible(),
		Totals: c.Aggregates(),
		Meta:   c.Meta(),
	}
}

func without[T any](items []T, drop func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}

// reinstate rolls back one failed removal. Items of snapshot matched by
// dropped are put back at their old position; everything else is taken from
// current, so concurrent changes are kept.
func reinstate[T any](snapshot, current []T, dropped func(T) bool, key func(T) string) []T {
	live := make(map[string]T, len(current))
	for _, it := range current {
		live[key(it)] = it
	}

	out := make([]T, 0, len(snapshot)+len(current))
	placed := make(map[string]bool, len(snapshot))
	for _, it := range snapshot {
		k := key(it)
		if cur, ok := live[k]; ok {
			out = append(out, cur)
			placed[k] = true
		} else if dropped(it) {
			out = append(out, it)
			placed[k] = true
		}
	}
	for _, it := range current {
		if !placed[key(it)] {
			out = append(out, it)
		}
	}
	return out
}
