// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cacheutil resolves the cache root and related switches for the
// command line. The memo library itself never reads the environment.
package cacheutil

import (
	"os"
	"path/filepath"

	"github.com/staranto/memo/internal/config"
)

// Dir resolves the base cache directory.
// Precedence:
//  1. MEMO_CACHE_DIR, if set and non-empty
//  2. root_path from the config file
//  3. os.UserCacheDir()/memo
//
// Returns ("", false) if a base cannot be resolved.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("MEMO_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if c, err := config.GetString("root_path"); err == nil && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "memo"), true
	}
	return "", false
}

// Enabled returns true unless MEMO_CACHE explicitly disables it ("0"/"false").
// When disabled, memo run executes its command without consulting the cache.
func Enabled() bool {
	enabled, _ := os.LookupEnv("MEMO_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}
