// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/meta"
	"github.com/staranto/memo/internal/store"
)

// entryColumns describe a store.Info for ls and stat.
var entryColumns = []Column[store.Info]{
	{
		Name:  "name",
		Text:  func(i store.Info) string { return i.Name },
		Value: func(i store.Info) any { return i.Name },
	},
	{
		Name:  "size",
		Text:  func(i store.Info) string { return humanize.IBytes(uint64(i.Size)) },
		Value: func(i store.Info) any { return i.Size },
	},
	{
		Name:  "modified",
		Text:  func(i store.Info) string { return humanize.Time(i.ModTime) },
		Value: func(i store.Info) any { return i.ModTime.UTC().Format(time.RFC3339) },
	},
	{
		Name:  "codec",
		Text:  func(i store.Info) string { return orDash(i.Err == nil, i.Header.Format.String()) },
		Value: func(i store.Info) any { return orDash(i.Err == nil, i.Header.Format.String()) },
	},
	{
		Name:  "version",
		Text:  func(i store.Info) string { return orDash(i.Err == nil, strconv.Itoa(int(i.Header.Version))) },
		Value: func(i store.Info) any {
			if i.Err != nil {
				return "-"
			}
			return int(i.Header.Version)
		},
	},
	{
		Name:  "status",
		Text:  status,
		Value: func(i store.Info) any { return status(i) },
	},
}

func status(i store.Info) string {
	if i.Err != nil {
		return "corrupt: " + i.Err.Error()
	}
	return "ok"
}

func orDash(ok bool, s string) string {
	if !ok {
		return "-"
	}
	return s
}

// LsCommandAction lists every entry under the cache root.
func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	s, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	infos, err := s.List()
	if err != nil {
		return err
	}
	return Emit(cmd, stdout(cmd), entryColumns, infos)
}

// LsCommandBuilder constructs the cli.Command definition for the "ls" command.
func LsCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "list cache entries",
		UsageText: "memo ls [options]",
		Description: `Lists every entry in the cache root with its size, age, payload codec and
format version. Entries whose framing is invalid are reported as corrupt.
Keys are not recoverable from file names, only their SHA-256 is shown.`,
		Action:   LsCommandAction,
		Metadata: map[string]any{"meta": meta},
	}
}
