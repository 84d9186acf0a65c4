// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package store persists serialized values on disk, one file per key, under a
// single root directory.
//
// The file name of an entry is the lowercase hex SHA-256 of its clear-text
// key. There is no index: the directory listing is the inventory.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/apex/log"

	"github.com/staranto/memo/internal/entry"
)

const (
	dirMode  = 0o755
	fileMode = 0o600

	// tempPrefix marks in-flight writes. List skips anything carrying it.
	tempPrefix = ".tmp-"
)

// Store reads and writes entries beneath Root. It holds no mutable state, so
// a single Store may be shared by goroutines working on different keys.
type Store struct {
	root  string
	codec entry.Codec
}

// Option customizes a Store.
type Option func(*Store)

// WithCodec selects the codec used for new entries. Existing entries are
// always decoded with the codec recorded in their header.
func WithCodec(c entry.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// Info describes one entry on disk.
type Info struct {
	Key     string // clear-text key, only set by Stat
	Name    string // hashed file name
	Path    string
	Size    int64
	ModTime time.Time
	Header  entry.Header
	// Err is set when the file exists but its framing is invalid.
	Err error
}

// New records root as the cache root, creating it and any missing parents.
func New(root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, &Error{Op: "init", Kind: ErrStorageInit, Err: errors.New("root path is empty")}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Op: "init", Path: root, Kind: ErrStorageInit, Err: err}
	}

	fi, err := os.Stat(abs)
	switch {
	case err == nil && !fi.IsDir():
		return nil, &Error{Op: "init", Path: abs, Kind: ErrStorageInit, Err: errors.New("not a directory")}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, &Error{Op: "init", Path: abs, Kind: ErrStorageInit, Err: err}
	}

	if err := os.MkdirAll(abs, dirMode); err != nil {
		return nil, &Error{Op: "init", Path: abs, Kind: ErrStorageInit, Err: err}
	}

	s := &Store{root: abs, codec: entry.Msgpack}
	for _, opt := range opts {
		opt(s)
	}
	log.Debugf("cache root %s (codec %s)", s.root, s.codec.Format())
	return s, nil
}

// Root returns the absolute cache root.
func (s *Store) Root() string { return s.root }

// Codec returns the codec used for new entries.
func (s *Store) Codec() entry.Codec { return s.codec }

// Path returns the location of the entry for key, whether or not it exists.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, EncodeKey(key))
}

// Exists reports whether an entry is present for key. A path that cannot be
// examined counts as present, so that Load reports why it cannot be read.
func (s *Store) Exists(key string) bool {
	fi, err := os.Stat(s.Path(key))
	if err != nil {
		return !errors.Is(err, fs.ErrNotExist)
	}
	return fi.Mode().IsRegular()
}

// Load decodes the entry for key into v, which must be a pointer.
func (s *Store) Load(key string, v any) error {
	p := s.Path(key)

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Error{Op: "load", Key: key, Path: p, Kind: ErrCacheMiss}
		}
		return &Error{Op: "load", Key: key, Path: p, Kind: ErrStorageRead, Err: err}
	}

	h, err := entry.Decode(data, v)
	if err != nil {
		log.WithField("key", key).WithError(err).Debugf("corrupt entry %s", p)
		return &Error{Op: "load", Key: key, Path: p, Kind: ErrCorruptEntry, Err: err}
	}

	log.WithField("key", key).Debugf("loaded %d %s bytes from %s", h.Length, h.Format, p)
	return nil
}

// Save encodes v and writes it as the entry for key, replacing any existing
// entry. The bytes go to a temporary file in the root that is renamed over
// the target, so the entry is either the old one or the new one in full.
func (s *Store) Save(key string, v any) error {
	p := s.Path(key)

	data, err := entry.Encode(s.codec, v)
	if err != nil {
		return &Error{Op: "save", Key: key, Path: p, Kind: ErrSerialization, Err: err}
	}

	// The root may have been removed since New.
	if err := os.MkdirAll(s.root, dirMode); err != nil {
		return &Error{Op: "save", Key: key, Path: p, Kind: ErrStorageWrite, Err: err}
	}

	if err := writeAtomic(p, data); err != nil {
		return &Error{Op: "save", Key: key, Path: p, Kind: ErrStorageWrite, Err: err}
	}

	log.WithField("key", key).Debugf("stored %d bytes at %s", len(data), p)
	return nil
}

// Stat describes the entry for key.
func (s *Store) Stat(key string) (Info, error) {
	p := s.Path(key)
	info, err := stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, &Error{Op: "stat", Key: key, Path: p, Kind: ErrCacheMiss}
		}
		return Info{}, &Error{Op: "stat", Key: key, Path: p, Kind: ErrStorageRead, Err: err}
	}
	info.Key = key
	return info, nil
}

// List describes every entry under the root, sorted by name. Temporary files
// and files whose name is not a key hash are skipped.
func (s *Store) List() ([]Info, error) {
	des, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &Error{Op: "list", Path: s.root, Kind: ErrStorageRead, Err: err}
	}

	var infos []Info
	for _, de := range des {
		if !de.Type().IsRegular() || !isEncodedKey(de.Name()) {
			continue
		}
		info, err := stat(filepath.Join(s.root, de.Name()))
		if err != nil {
			// Removed between ReadDir and stat.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &Error{Op: "list", Path: s.root, Kind: ErrStorageRead, Err: err}
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Raw returns the header and undecoded payload of the entry for key.
func (s *Store) Raw(key string) (entry.Header, []byte, error) {
	p := s.Path(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entry.Header{}, nil, &Error{Op: "load", Key: key, Path: p, Kind: ErrCacheMiss}
		}
		return entry.Header{}, nil, &Error{Op: "load", Key: key, Path: p, Kind: ErrStorageRead, Err: err}
	}
	h, payload, err := entry.Parse(data)
	if err != nil {
		return h, nil, &Error{Op: "load", Key: key, Path: p, Kind: ErrCorruptEntry, Err: err}
	}
	return h, payload, nil
}

// EncodeKey returns the file name used for key.
func EncodeKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func isEncodedKey(name string) bool {
	if len(name) != sha256.Size*2 {
		return false
	}
	for _, r := range name {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func stat(p string) (Info, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return Info{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return Info{}, err
	}
	h, _, perr := entry.Parse(data)
	return Info{
		Name:    filepath.Base(p),
		Path:    p,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Header:  h,
		Err:     perr,
	}, nil
}

func writeAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(p)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, p); err != nil {
		return err
	}
	return syncDir(dir)
}

// syncDir flushes dir so a completed rename survives a crash. Windows cannot
// sync a directory handle.
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, errors.ErrUnsupported) {
		return err
	}
	return nil
}
