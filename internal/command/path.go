// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/meta"
)

type pathResult struct {
	Key    string
	Path   string
	Exists bool
}

var pathColumns = []Column[pathResult]{
	{
		Name:  "key",
		Text:  func(r pathResult) string { return r.Key },
		Value: func(r pathResult) any { return r.Key },
	},
	{
		Name:  "path",
		Text:  func(r pathResult) string { return r.Path },
		Value: func(r pathResult) any { return r.Path },
	},
	{
		Name: "exists",
		Text: func(r pathResult) string {
			if r.Exists {
				return "yes"
			}
			return "no"
		},
		Value: func(r pathResult) any { return r.Exists },
	},
}

// PathCommandAction prints where the entry for each key lives.
func PathCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, "at least one KEY"); err != nil {
		return err
	}

	s, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	var results []pathResult
	for _, key := range cmd.Args().Slice() {
		results = append(results, pathResult{Key: key, Path: s.Path(key), Exists: s.Exists(key)})
	}
	return Emit(cmd, stdout(cmd), pathColumns, results)
}

// PathCommandBuilder constructs the cli.Command definition for the "path"
// command.
func PathCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "path",
		Usage:     "show the file that holds a key",
		UsageText: "memo path KEY... [options]",
		Action:    PathCommandAction,
		Metadata:  map[string]any{"meta": meta},
	}
}
