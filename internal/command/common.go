// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/cacheutil"
	"github.com/staranto/memo/internal/entry"
	"github.com/staranto/memo/internal/store"
)

// OpenStore builds a Store from --root and --codec. An empty --root falls back
// to cacheutil.Dir.
func OpenStore(cmd *cli.Command) (*store.Store, error) {
	root := cmd.String("root")
	if root == "" {
		dir, ok := cacheutil.Dir()
		if !ok {
			return nil, errors.New("cannot resolve a cache root: set --root or MEMO_CACHE_DIR")
		}
		root = dir
	}

	format, err := entry.ParseFormat(cmd.String("codec"))
	if err != nil {
		return nil, err
	}
	codec, err := entry.CodecFor(format)
	if err != nil {
		return nil, err
	}

	log.Debugf("opening cache root %s", root)
	return store.New(root, store.WithCodec(codec))
}

// requireArgs fails unless the command got at least n positional arguments.
func requireArgs(cmd *cli.Command, n int, what string) error {
	if cmd.Args().Len() < n {
		return fmt.Errorf("%s requires %s", cmd.Name, what)
	}
	return nil
}

// stdout is where command results go. Tests swap the root Writer.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return cmd.Writer
}

// DecodeGeneric decodes the entry for key without knowing its Go type and
// returns it as JSON. Maps with non-string keys get their keys stringified.
func DecodeGeneric(s *store.Store, key string) ([]byte, error) {
	h, payload, err := s.Raw(key)
	if err != nil {
		return nil, err
	}
	codec, err := entry.CodecFor(h.Format)
	if err != nil {
		return nil, err
	}

	var v any
	if err := codec.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", h.Format, err)
	}

	out, err := json.Marshal(jsonable(v))
	if err != nil {
		return nil, fmt.Errorf("failed to render entry as JSON: %w", err)
	}
	return out, nil
}

func jsonable(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonable(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = jsonable(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = jsonable(val)
		}
		return t
	default:
		return v
	}
}
