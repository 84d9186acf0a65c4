// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/staranto/memo/internal/command"
)

// Minimal doc generator:
// - Builds the memo command tree
// - Generates docs/man/share/man1/memo.1 and memo-<cmd>.1 via md2man

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	if err := os.MkdirAll(manOutDir, 0o755); err != nil {
		fatalf("creating man output dir: %v", err)
	}

	app, err := command.InitApp(context.Background(), []string{"memo"})
	if err != nil {
		fatalf("building command tree: %v", err)
	}

	pages := map[string][]byte{"memo.1": command.ManPage(app, "")}
	for _, cmd := range app.Commands {
		if cmd.Hidden {
			continue
		}
		pages[fmt.Sprintf("memo-%s.1", cmd.Name)] = command.ManPage(cmd, app.Name)
	}

	for name, page := range pages {
		if err := writeFileIfChanged(filepath.Join(manOutDir, name), page, writeOnlyIfChanged); err != nil {
			fatalf("writing man page %s: %v", name, err)
		}
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}
