// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/staranto/memo/internal/meta"
)

// CatCommandAction decodes the entry for a key and prints it.
func CatCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, "a KEY"); err != nil {
		return err
	}

	s, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	raw, err := DecodeGeneric(s, cmd.Args().First())
	if err != nil {
		return err
	}

	if q := cmd.String("query"); q != "" {
		r := gjson.GetBytes(raw, q)
		if !r.Exists() {
			return fmt.Errorf("query %q matched nothing", q)
		}
		raw = []byte(r.Raw)
	}

	w := stdout(cmd)
	switch cmd.String("output") {
	case "yaml":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		_, err := fmt.Fprintln(w, string(raw))
		return err
	default:
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, out.String())
		return err
	}
}

// CatCommandBuilder constructs the cli.Command definition for the "cat"
// command.
func CatCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "print a cache entry",
		UsageText: "memo cat KEY [--query PATH] [options]",
		Description: `Decodes the entry for KEY with the codec recorded in its header and prints
it as indented JSON (text), compact JSON (json) or YAML (yaml). --query
selects part of the value using a gjson path, e.g. rows.0.name.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "gjson path selecting part of the value",
			},
		},
		Action:   CatCommandAction,
		Metadata: map[string]any{"meta": meta},
	}
}
