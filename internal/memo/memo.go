// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"errors"
	"reflect"

	"github.com/apex/log"

	"github.com/staranto/memo/internal/entry"
	"github.com/staranto/memo/internal/store"
)

// Memoizer decides between loading a stored result and computing a new one.
type Memoizer struct {
	store *store.Store

	recomputeCorrupt     bool
	tolerateStoreFailure bool
}

// Option customizes a Memoizer.
type Option func(*Memoizer)

// WithRecomputeOnCorrupt treats an undecodable entry as a miss and
// overwrites it with a fresh result.
func WithRecomputeOnCorrupt() Option {
	return func(m *Memoizer) { m.recomputeCorrupt = true }
}

// WithTolerateStoreFailure logs a failure to persist a computed result
// instead of returning it.
func WithTolerateStoreFailure() Option {
	return func(m *Memoizer) { m.tolerateStoreFailure = true }
}

// New returns a Memoizer backed by s.
func New(s *store.Store, opts ...Option) *Memoizer {
	m := &Memoizer{store: s}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config holds the settings recognized by Open.
type Config struct {
	// RootPath is the directory holding the entries. Created if absent.
	RootPath string `yaml:"root_path"`
	// Codec names the payload codec for new entries: "msgpack" (default) or
	// "yaml".
	Codec                string `yaml:"codec"`
	RecomputeOnCorrupt   bool   `yaml:"recompute_corrupt"`
	TolerateStoreFailure bool   `yaml:"tolerate_store_failure"`
}

// Open builds a Store and a Memoizer from cfg.
func Open(cfg Config) (*Memoizer, error) {
	format, err := entry.ParseFormat(cfg.Codec)
	if err != nil {
		return nil, err
	}
	codec, err := entry.CodecFor(format)
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.RootPath, store.WithCodec(codec))
	if err != nil {
		return nil, err
	}

	var opts []Option
	if cfg.RecomputeOnCorrupt {
		opts = append(opts, WithRecomputeOnCorrupt())
	}
	if cfg.TolerateStoreFailure {
		opts = append(opts, WithTolerateStoreFailure())
	}
	return New(s, opts...), nil
}

// Store returns the underlying Store.
func (m *Memoizer) Store() *store.Store { return m.store }

// Call returns the value stored under key, or runs fn, stores its result
// under key and returns it.
//
// An error from fn is returned as is, with whatever value fn returned, and
// leaves the cache untouched. If storing the result fails, the result is
// still returned together with the store error. A result that cannot be
// stored intact fails with store.ErrSerialization.
func Call[T any](m *Memoizer, key string, fn func() (T, error)) (T, error) {
	l := log.WithField("key", key)

	if m.store.Exists(key) {
		var v T
		err := m.store.Load(key, &v)
		switch {
		case err == nil:
			l.Debug("cache hit")
			return v, nil
		case errors.Is(err, store.ErrCacheMiss):
			// Removed after Exists.
		case errors.Is(err, store.ErrCorruptEntry) && m.recomputeCorrupt:
			l.WithError(err).Warn("recomputing corrupt entry")
		default:
			var zero T
			return zero, err
		}
	}

	l.Debug("cache miss")
	v, err := fn()
	if err != nil {
		return v, err
	}

	return persist(m, key, v)
}

// Refresh runs fn and stores its result under key whether or not an entry
// already exists, replacing it. Errors follow the rules of Call.
func Refresh[T any](m *Memoizer, key string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err != nil {
		return v, err
	}
	return persist(m, key, v)
}

// persist stores v under key. When T can hold interface values the stored
// copy is read back and returned instead of v, so a miss yields exactly what
// later hits will.
func persist[T any](m *Memoizer, key string, v T) (T, error) {
	l := log.WithField("key", key)

	if err := m.store.Save(key, v); err != nil {
		if m.tolerateStoreFailure {
			l.WithError(err).Warn("result not cached")
			return v, nil
		}
		return v, err
	}
	if !entry.HasInterface(reflect.TypeFor[T]()) {
		return v, nil
	}

	var stored T
	if err := m.store.Load(key, &stored); err != nil {
		if m.tolerateStoreFailure {
			l.WithError(err).Warn("stored result not readable")
			return v, nil
		}
		return v, err
	}
	return stored, nil
}

// Invoke is Call for a variadic function and its arguments. The arguments
// are passed to fn on a miss and ignored otherwise.
func Invoke[A, T any](m *Memoizer, key string, fn func(...A) (T, error), args ...A) (T, error) {
	return Call(m, key, func() (T, error) { return fn(args...) })
}

// Wrap returns a function that performs Call with the fixed key.
func Wrap[T any](m *Memoizer, key string, fn func() (T, error)) func() (T, error) {
	return func() (T, error) { return Call(m, key, fn) }
}

// Decorate returns a decorator binding single-argument functions to key.
// Every call of the decorated function shares the entry for key, whatever
// its argument.
func Decorate[A, T any](m *Memoizer, key string) func(func(A) (T, error)) func(A) (T, error) {
	return func(fn func(A) (T, error)) func(A) (T, error) {
		return func(a A) (T, error) {
			return Call(m, key, func() (T, error) { return fn(a) })
		}
	}
}

// DecorateVariadic is Decorate for variadic functions.
func DecorateVariadic[A, T any](m *Memoizer, key string) func(func(...A) (T, error)) func(...A) (T, error) {
	return func(fn func(...A) (T, error)) func(...A) (T, error) {
		return func(args ...A) (T, error) {
			return Invoke(m, key, fn, args...)
		}
	}
}
