// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/memo/internal/meta"
	"github.com/staranto/memo/internal/store"
)

// DiffEntries compares the decoded values stored under two keys. Values that
// are not JSON objects are compared as {"value": v}.
func DiffEntries(s *store.Store, left, right string) (gojsondiff.Diff, map[string]any, error) {
	l, err := objectJSON(s, left)
	if err != nil {
		return nil, nil, err
	}
	r, err := objectJSON(s, right)
	if err != nil {
		return nil, nil, err
	}

	d, err := gojsondiff.New().Compare(l, r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare entries: %w", err)
	}

	var leftObj map[string]any
	if err := json.Unmarshal(l, &leftObj); err != nil {
		return nil, nil, err
	}
	return d, leftObj, nil
}

func objectJSON(s *store.Store, key string) ([]byte, error) {
	raw, err := DecodeGeneric(s, key)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		return raw, nil
	}
	return json.Marshal(map[string]json.RawMessage{"value": raw})
}

// DiffCommandAction prints the structural difference between two entries.
func DiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 2, "two KEYs"); err != nil {
		return err
	}

	s, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	d, left, err := DiffEntries(s, cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if !d.Modified() {
		_, err := fmt.Fprintln(w, "no differences")
		return err
	}

	var out string
	switch cmd.String("output") {
	case "json":
		out, err = formatter.NewDeltaFormatter().Format(d)
	default:
		out, err = formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
			Coloring:       cmd.Bool("color"),
		}).Format(d)
	}
	if err != nil {
		return fmt.Errorf("failed to format diff: %w", err)
	}
	_, err = fmt.Fprint(w, out)
	return err
}

// DiffCommandBuilder constructs the cli.Command definition for the "diff"
// command.
func DiffCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "compare two cache entries",
		UsageText: "memo diff KEY1 KEY2 [options]",
		Action:    DiffCommandAction,
		Metadata:  map[string]any{"meta": meta},
	}
}
