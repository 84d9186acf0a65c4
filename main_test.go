// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealMain(t *testing.T) {
	t.Setenv("MEMO_CFG", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("MEMO_ENV_FILE", "")
	root := t.TempDir()

	assert.Equal(t, 0, realMain([]string{"memo", "--version"}))
	assert.Equal(t, 0, realMain([]string{"memo", "--root", root, "ls"}))
	assert.Equal(t, 2, realMain([]string{"memo", "--root", root, "cat", "missing"}))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "memo.env")
	require.NoError(t, os.WriteFile(envFile, []byte("MEMO_MAIN_TEST=loaded\n"), 0o600))
	t.Setenv("MEMO_MAIN_TEST", "")
	os.Unsetenv("MEMO_MAIN_TEST")
	t.Setenv("MEMO_ENV_FILE", envFile)

	require.NoError(t, loadEnvFile())
	assert.Equal(t, "loaded", os.Getenv("MEMO_MAIN_TEST"))

	t.Setenv("MEMO_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, loadEnvFile())
}
