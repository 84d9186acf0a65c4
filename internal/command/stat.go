// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/meta"
	"github.com/staranto/memo/internal/store"
)

// StatCommandAction describes the entry for each key argument.
func StatCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, "at least one KEY"); err != nil {
		return err
	}

	s, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	var infos []store.Info
	for _, key := range cmd.Args().Slice() {
		info, err := s.Stat(key)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}

	columns := append([]Column[store.Info]{{
		Name:  "key",
		Text:  func(i store.Info) string { return i.Key },
		Value: func(i store.Info) any { return i.Key },
	}}, entryColumns...)
	columns = append(columns, Column[store.Info]{
		Name:  "path",
		Text:  func(i store.Info) string { return i.Path },
		Value: func(i store.Info) any { return i.Path },
	})
	return Emit(cmd, stdout(cmd), columns, infos)
}

// StatCommandBuilder constructs the cli.Command definition for the "stat"
// command.
func StatCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "describe cache entries by key",
		UsageText: "memo stat KEY... [options]",
		Action:    StatCommandAction,
		Metadata:  map[string]any{"meta": meta},
	}
}
