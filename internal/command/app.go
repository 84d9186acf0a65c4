// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/config"
	"github.com/staranto/memo/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the memo
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be a flag, so ignore it if it
	// appears to be one.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, _ := config.Load(ns)
	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:     "memo",
		Usage:    "disk-backed memoization cache",
		Flags:    NewGlobalFlags(ns, cfg.Source),
		Metadata: map[string]any{"meta": meta},
	}

	app.Commands = append(app.Commands,
		CatCommandBuilder(meta),
		DiffCommandBuilder(meta),
		LsCommandBuilder(meta),
		ManCommandBuilder(meta),
		PathCommandBuilder(meta),
		RmCommandBuilder(meta),
		RunCommandBuilder(meta),
		StatCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	sortFlags(app)
	for _, cmd := range app.Commands {
		sortFlags(cmd)
	}

	return app, nil
}

func sortFlags(cmd *cli.Command) {
	sort.Slice(cmd.Flags, func(i, j int) bool {
		return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
	})
}

// GetMeta returns the meta.Meta stored in the command's Metadata, falling back
// to the root command. If missing it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil {
		return meta.Meta{}
	}
	for _, c := range []*cli.Command{cmd, cmd.Root()} {
		if c == nil || c.Metadata == nil {
			continue
		}
		if m, ok := c.Metadata["meta"].(meta.Meta); ok {
			return m
		}
	}
	return meta.Meta{}
}
