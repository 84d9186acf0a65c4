// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Store matches exactly one of these
// with errors.Is.
var (
	// ErrStorageInit reports that the cache root could not be established.
	ErrStorageInit = errors.New("cache root unavailable")

	// ErrCacheMiss reports that no entry exists for a key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCorruptEntry reports that an entry exists but cannot be decoded.
	ErrCorruptEntry = errors.New("corrupt cache entry")

	// ErrSerialization reports that a value cannot be encoded.
	ErrSerialization = errors.New("value cannot be serialized")

	// ErrStorageWrite reports an I/O failure while persisting an entry.
	ErrStorageWrite = errors.New("cache write failed")

	// ErrStorageRead reports an I/O failure, other than a missing file,
	// while reading an entry.
	ErrStorageRead = errors.New("cache read failed")
)

// Error describes a failed Store operation.
type Error struct {
	Op   string // "init", "load", "save", "stat" or "list"
	Key  string // clear-text key, empty for root-level operations
	Path string
	Kind error // one of the Err* kinds above
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	msg += ": " + e.Kind.Error()
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
