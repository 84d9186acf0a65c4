// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/memo/internal/entry"
)

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	return s
}

func TestEncodeKey(t *testing.T) {
	tests := map[string]string{
		"cache_manager": "34d7518f35fb588fcc7768ea21389b823f33e8eb8742a34172fcfff5ec388409",
		"test":          "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		"abc":           "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}
	for key, want := range tests {
		assert.Equal(t, want, EncodeKey(key), key)
		assert.True(t, isEncodedKey(EncodeKey(key)))
	}
	assert.NotEqual(t, EncodeKey("a"), EncodeKey("b"))
}

func TestNew(t *testing.T) {
	t.Run("creates nested root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "a", "b", "c")
		s, err := New(root)
		require.NoError(t, err)
		assert.Equal(t, root, s.Root())
		fi, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	})

	t.Run("existing root", func(t *testing.T) {
		root := t.TempDir()
		_, err := New(root)
		assert.NoError(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))
		_, err := New(root)
		assert.ErrorIs(t, err, ErrStorageInit)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("parent is a file", func(t *testing.T) {
		parent := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))
		_, err := New(filepath.Join(parent, "cache"))
		assert.ErrorIs(t, err, ErrStorageInit)
	})

	t.Run("empty root", func(t *testing.T) {
		_, err := New("")
		assert.ErrorIs(t, err, ErrStorageInit)
	})

	t.Run("default codec", func(t *testing.T) {
		s := newStore(t)
		assert.Equal(t, entry.FormatMsgpack, s.Codec().Format())
		s = newStore(t, WithCodec(entry.YAML))
		assert.Equal(t, entry.FormatYAML, s.Codec().Format())
	})
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	type point struct {
		X, Y  int
		Label string
	}

	values := []struct {
		name string
		in   any
	}{
		{name: "int", in: 3},
		{name: "string", in: "Hello World!"},
		{name: "slice", in: []float64{1.5, -2, 0}},
		{name: "map", in: map[string]bool{"a": true, "b": false}},
		{name: "struct", in: point{X: 1, Y: -1, Label: "p"}},
	}

	for _, c := range []entry.Codec{entry.Msgpack, entry.YAML} {
		s := newStore(t, WithCodec(c))
		for _, v := range values {
			t.Run(c.Format().String()+"/"+v.name, func(t *testing.T) {
				require.NoError(t, s.Save(v.name, v.in))
				out := reflect.New(reflect.TypeOf(v.in))
				require.NoError(t, s.Load(v.name, out.Interface()))
				assert.Equal(t, v.in, out.Elem().Interface())
			})
		}
	}
}

func TestExists(t *testing.T) {
	s := newStore(t)
	assert.False(t, s.Exists("k"))
	require.NoError(t, s.Save("k", 1))
	assert.True(t, s.Exists("k"))
	assert.False(t, s.Exists("other"))
}

func TestExists_Unreadable(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.RemoveAll(s.Root()))
	require.NoError(t, os.WriteFile(s.Root(), []byte("in the way"), 0o600))

	// Stat fails with ENOTDIR, not ENOENT.
	assert.True(t, s.Exists("k"))
	var v int
	err := s.Load("k", &v)
	assert.ErrorIs(t, err, ErrStorageRead)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestLoad_Miss(t *testing.T) {
	s := newStore(t)
	var v int
	err := s.Load("nope", &v)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, v)

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "load", serr.Op)
	assert.Equal(t, "nope", serr.Key)
	assert.Equal(t, s.Path("nope"), serr.Path)
}

func TestLoad_IdempotentHits(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("k", "v"))

	before, err := os.Stat(s.Path("k"))
	require.NoError(t, err)
	raw, err := os.ReadFile(s.Path("k"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		var got string
		require.NoError(t, s.Load("k", &got))
		assert.Equal(t, "v", got)
	}

	after, err := os.Stat(s.Path("k"))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	rawAfter, err := os.ReadFile(s.Path("k"))
	require.NoError(t, err)
	assert.Equal(t, raw, rawAfter)
	assertOnlyEntries(t, s, 1)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		modify func(t *testing.T, p string)
		cause  error
	}{
		{
			name: "truncated to zero bytes",
			modify: func(t *testing.T, p string) {
				require.NoError(t, os.Truncate(p, 0))
			},
			cause: entry.ErrTruncated,
		},
		{
			name: "truncated payload",
			modify: func(t *testing.T, p string) {
				fi, err := os.Stat(p)
				require.NoError(t, err)
				require.NoError(t, os.Truncate(p, fi.Size()-1))
			},
			cause: entry.ErrTruncated,
		},
		{
			name: "foreign bytes",
			modify: func(t *testing.T, p string) {
				require.NoError(t, os.WriteFile(p, []byte("\x80\x04\x95pickle data here"), 0o600))
			},
			cause: entry.ErrMagic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, s.Save("k", "value"))
			tt.modify(t, s.Path("k"))

			var got string
			err := s.Load("k", &got)
			assert.ErrorIs(t, err, ErrCorruptEntry)
			assert.ErrorIs(t, err, tt.cause)
			assert.Empty(t, got)
		})
	}
}

func TestLoad_TypeMismatchIsCorrupt(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("k", "text"))
	var n int
	assert.ErrorIs(t, s.Load("k", &n), ErrCorruptEntry)
}

func TestLoad_ReadError(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.Mkdir(s.Path("dir"), 0o755))
	var v int
	err := s.Load("dir", &v)
	assert.ErrorIs(t, err, ErrStorageRead)
	assert.False(t, s.Exists("dir"))
}

func TestSave_Overwrite(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("k", 1))
	require.NoError(t, s.Save("k", 2))

	var got int
	require.NoError(t, s.Load("k", &got))
	assert.Equal(t, 2, got)
	assertOnlyEntries(t, s, 1)
}

func TestSave_KeyIsolation(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("k1", "v1"))
	require.NoError(t, s.Save("k2", "v2"))

	var v1, v2 string
	require.NoError(t, s.Load("k1", &v1))
	require.NoError(t, s.Load("k2", &v2))
	assert.Equal(t, "v1", v1)
	assert.Equal(t, "v2", v2)
	assertOnlyEntries(t, s, 2)
}

func TestSave_Serialization(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("k", "old"))

	err := s.Save("k", struct{ F func() }{F: func() {}})
	assert.ErrorIs(t, err, ErrSerialization)

	var got string
	require.NoError(t, s.Load("k", &got))
	assert.Equal(t, "old", got, "failed save must leave the previous entry intact")

	err = s.Save("fresh", make(chan int))
	assert.ErrorIs(t, err, ErrSerialization)
	assert.False(t, s.Exists("fresh"))
	assertOnlyEntries(t, s, 1)
}

func TestSave_UnexportedFields(t *testing.T) {
	type point struct {
		x, y int
	}
	type tagged struct {
		Name  string
		cache []int `msgpack:"-" yaml:"-"`
	}

	for _, c := range []entry.Codec{entry.Msgpack, entry.YAML} {
		t.Run(c.Format().String(), func(t *testing.T) {
			s := newStore(t, WithCodec(c))

			err := s.Save("p", point{x: 1, y: 2})
			assert.ErrorIs(t, err, ErrSerialization)
			assert.ErrorIs(t, err, entry.ErrUnsupported)
			assert.False(t, s.Exists("p"))

			err = s.Save("list", []point{{x: 1}})
			assert.ErrorIs(t, err, ErrSerialization)
			assert.False(t, s.Exists("list"))

			require.NoError(t, s.Save("t", tagged{Name: "n", cache: []int{1}}))
			var got tagged
			require.NoError(t, s.Load("t", &got))
			assert.Equal(t, "n", got.Name)
			assertOnlyEntries(t, s, 1)
		})
	}
}

func TestSyncDir(t *testing.T) {
	assert.NoError(t, syncDir(t.TempDir()))
	assert.Error(t, syncDir(filepath.Join(t.TempDir(), "missing")))
}

func TestSave_RecreatesRoot(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.RemoveAll(s.Root()))

	require.NoError(t, s.Save("k", 1))
	assert.True(t, s.Exists("k"))
}

func TestSave_WriteError(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.RemoveAll(s.Root()))
	require.NoError(t, os.WriteFile(s.Root(), []byte("in the way"), 0o600))

	err := s.Save("k", 1)
	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.NotErrorIs(t, err, ErrSerialization)
}

func TestSave_FileMode(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("k", 1))
	fi, err := os.Stat(s.Path("k"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestStat(t *testing.T) {
	s := newStore(t, WithCodec(entry.YAML))
	require.NoError(t, s.Save("k", []string{"a"}))

	info, err := s.Stat("k")
	require.NoError(t, err)
	assert.Equal(t, "k", info.Key)
	assert.Equal(t, EncodeKey("k"), info.Name)
	assert.Equal(t, s.Path("k"), info.Path)
	assert.Equal(t, entry.FormatYAML, info.Header.Format)
	assert.Equal(t, entry.Version, info.Header.Version)
	assert.Equal(t, info.Size, int64(info.Header.Length)+entry.HeaderSize)
	assert.NoError(t, info.Err)
	assert.False(t, info.ModTime.IsZero())

	_, err = s.Stat("missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestList(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("a", 1))
	require.NoError(t, s.Save("b", 2))
	require.NoError(t, s.Save("c", 3))
	require.NoError(t, os.Truncate(s.Path("c"), 0))

	// Noise that is not an entry.
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), tempPrefix+EncodeKey("d")+"-123"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "README"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), EncodeKey("e")), 0o755))

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)

	byName := map[string]Info{}
	for i, info := range infos {
		if i > 0 {
			assert.Less(t, infos[i-1].Name, info.Name)
		}
		byName[info.Name] = info
	}
	assert.NoError(t, byName[EncodeKey("a")].Err)
	assert.NoError(t, byName[EncodeKey("b")].Err)
	assert.ErrorIs(t, byName[EncodeKey("c")].Err, entry.ErrTruncated)
}

func TestRaw(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save("k", "v"))

	h, payload, err := s.Raw("k")
	require.NoError(t, err)
	assert.Equal(t, entry.FormatMsgpack, h.Format)
	assert.Len(t, payload, int(h.Length))

	_, _, err = s.Raw("missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, os.WriteFile(s.Path("k"), nil, 0o600))
	_, _, err = s.Raw("k")
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestError_Message(t *testing.T) {
	err := &Error{Op: "load", Key: "k", Path: "/tmp/x", Kind: ErrCorruptEntry, Err: entry.ErrChecksum}
	assert.Equal(t, `load "k": corrupt cache entry (/tmp/x): checksum mismatch`, err.Error())

	err = &Error{Op: "init", Kind: ErrStorageInit}
	assert.Equal(t, "init: cache root unavailable", err.Error())
}

// assertOnlyEntries checks that the root holds exactly n files and no
// leftover temporary files.
func assertOnlyEntries(t *testing.T, s *Store, n int) {
	t.Helper()
	des, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, des, n)
	for _, de := range des {
		assert.True(t, isEncodedKey(de.Name()), "unexpected file %s", de.Name())
	}
}
