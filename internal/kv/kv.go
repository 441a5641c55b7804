// Package kv is the persistence port for client state: the auth blob,
// cached lists for instant render, preferences and one-shot flags.
//
// Writes are plain read-then-write with no transactions. Two writers racing
// on one key lose an update; every value stored here can be rebuilt from the
// backend.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Well-known keys.
const (
	KeyAuth           = "auth"
	KeyCourses        = "cache:courses"
	KeyHelp           = "cache:help"
	KeyLanguage       = "pref:language"
	KeyOnboardingSeen = "flag:onboarding_seen"
)

// SessionsKey is the cache key for the sessions of one course.
func SessionsKey(courseID string) string {
	return "cache:sessions:" + courseID
}

// StudentsKey is the cache key for the roster of one course.
func StudentsKey(courseID string) string {
	return "cache:students:" + courseID
}

// Store is a string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var v T
	data, err := s.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return v, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %q: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
