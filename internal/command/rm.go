// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/meta"
)

// RmCommandAction deletes the entry file for each key. The library never
// removes entries; this is plain filesystem management of the cache root.
func RmCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, "at least one KEY"); err != nil {
		return err
	}

	s, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	w := stdout(cmd)
	for _, key := range cmd.Args().Slice() {
		p := s.Path(key)
		if err := os.Remove(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) && cmd.Bool("force") {
				log.Debugf("no entry for %q", key)
				continue
			}
			return fmt.Errorf("failed to remove entry for %q: %w", key, err)
		}
		fmt.Fprintf(w, "removed %s\n", key)
	}
	return nil
}

// RmCommandBuilder constructs the cli.Command definition for the "rm" command.
func RmCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove cache entries by key",
		UsageText: "memo rm KEY... [--force] [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "ignore keys without an entry",
				HideDefault: true,
			},
		},
		Action:   RmCommandAction,
		Metadata: map[string]any{"meta": meta},
	}
}
