// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// NewGlobalFlags returns the flags shared by every command. ns is the
// subcommand name, used to look up namespaced values in the config file
// before top-level ones. source is the config file path.
func NewGlobalFlags(ns, source string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "cache root directory",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("MEMO_CACHE_DIR"),
				yaml.YAML(ns+"."+"root_path", altsrc.StringSourcer(source)),
				yaml.YAML("root_path", altsrc.StringSourcer(source)),
			),
		},
		&cli.StringFlag{
			Name:  "codec",
			Usage: "payload codec for new entries (msgpack, yaml)",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"codec", altsrc.StringSourcer(source)),
				yaml.YAML("codec", altsrc.StringSourcer(source)),
			),
			Value: "msgpack",
			Validator: func(value string) error {
				return FlagValidators(value, CodecValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(source)),
				yaml.YAML("color", altsrc.StringSourcer(source)),
			),
			Value: stdoutIsTerminal(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml)",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(source)),
				yaml.YAML("output", altsrc.StringSourcer(source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(source)),
				yaml.YAML("titles", altsrc.StringSourcer(source)),
			),
			Value: true,
		},
	}
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
