// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/meta"
)

// Markdown renders the documentation of cmd. parent is the command path
// leading to cmd, empty for the root.
func Markdown(cmd *cli.Command, parent string) string {
	name := cmd.Name
	if parent != "" {
		name = parent + "-" + cmd.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s 1\n\n", name)

	b.WriteString("## NAME\n\n")
	fmt.Fprintf(&b, "%s - %s\n\n", name, cmd.Usage)

	if cmd.UsageText != "" {
		b.WriteString("## SYNOPSIS\n\n")
		fmt.Fprintf(&b, "`%s`\n\n", cmd.UsageText)
	}

	if cmd.Description != "" {
		b.WriteString("## DESCRIPTION\n\n")
		b.WriteString(cmd.Description)
		b.WriteString("\n\n")
	}

	if len(cmd.Commands) > 0 {
		b.WriteString("## COMMANDS\n\n")
		for _, sub := range cmd.Commands {
			if sub.Hidden {
				continue
			}
			fmt.Fprintf(&b, "**%s**\n: %s\n\n", sub.Name, sub.Usage)
		}
	}

	if len(cmd.Flags) > 0 {
		b.WriteString("## OPTIONS\n\n")
		for _, f := range cmd.Flags {
			names := make([]string, 0, len(f.Names()))
			for _, n := range f.Names() {
				if len(n) == 1 {
					names = append(names, "-"+n)
				} else {
					names = append(names, "--"+n)
				}
			}
			usage := ""
			if df, ok := f.(cli.DocGenerationFlag); ok {
				usage = df.GetUsage()
			}
			fmt.Fprintf(&b, "**%s**\n: %s\n\n", strings.Join(names, ", "), usage)
		}
	}

	return b.String()
}

// ManPage renders the documentation of cmd as a roff man page.
func ManPage(cmd *cli.Command, parent string) []byte {
	return md2man.Render([]byte(Markdown(cmd, parent)))
}

// ManCommandAction prints the man page of the root command, or of the
// subcommand named by the first argument.
func ManCommandAction(ctx context.Context, cmd *cli.Command) error {
	root := cmd.Root()
	target, parent := root, ""
	if name := cmd.Args().First(); name != "" {
		sub := root.Command(name)
		if sub == nil {
			return fmt.Errorf("unknown command %q", name)
		}
		target, parent = sub, root.Name
	}
	_, err := stdout(cmd).Write(ManPage(target, parent))
	return err
}

// ManCommandBuilder constructs the cli.Command definition for the hidden
// "man" command.
func ManCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "man",
		Usage:     "print the man page",
		UsageText: "memo man [COMMAND]",
		Hidden:    true,
		Action:    ManCommandAction,
		Metadata:  map[string]any{"meta": meta},
	}
}
