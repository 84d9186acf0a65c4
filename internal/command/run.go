// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/memo/internal/cacheutil"
	"github.com/staranto/memo/internal/memo"
	"github.com/staranto/memo/internal/meta"
)

// RunResult is what memo run caches for a command.
type RunResult struct {
	Command  []string      `msgpack:"command" yaml:"command"`
	Stdout   []byte        `msgpack:"stdout" yaml:"stdout"`
	Duration time.Duration `msgpack:"duration" yaml:"duration"`
	Finished time.Time     `msgpack:"finished" yaml:"finished"`
}

// Exec runs argv in dir, capturing stdout and passing stderr through. A
// non-zero exit status is an error.
func Exec(ctx context.Context, dir string, argv []string) (RunResult, error) {
	var out bytes.Buffer
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = dir
	c.Stdin = os.Stdin
	c.Stdout = &out
	c.Stderr = os.Stderr

	start := time.Now()
	err := c.Run()
	r := RunResult{
		Command:  argv,
		Stdout:   out.Bytes(),
		Duration: time.Since(start),
		Finished: time.Now().UTC(),
	}
	if err != nil {
		return r, fmt.Errorf("command %q failed: %w", argv[0], err)
	}
	return r, nil
}

// RunCommandAction prints the cached stdout of a command, running it only
// when no entry exists for the key.
func RunCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 2, "a KEY and a command"); err != nil {
		return err
	}
	key := cmd.Args().First()
	argv := cmd.Args().Slice()[1:]
	dir := GetMeta(cmd).StartingDir

	compute := func() (RunResult, error) { return Exec(ctx, dir, argv) }

	var (
		r   RunResult
		err error
	)
	if !cacheutil.Enabled() {
		log.Debug("cache disabled by MEMO_CACHE")
		r, err = compute()
	} else {
		s, serr := OpenStore(cmd)
		if serr != nil {
			return serr
		}

		var opts []memo.Option
		if cmd.Bool("recompute-corrupt") {
			opts = append(opts, memo.WithRecomputeOnCorrupt())
		}
		if cmd.Bool("tolerate-store-failure") {
			opts = append(opts, memo.WithTolerateStoreFailure())
		}
		m := memo.New(s, opts...)

		if cmd.Bool("refresh") {
			r, err = memo.Refresh(m, key, compute)
		} else {
			r, err = memo.Call(m, key, compute)
		}
	}

	if _, werr := stdout(cmd).Write(r.Stdout); werr != nil && err == nil {
		err = werr
	}
	return err
}

// RunCommandBuilder constructs the cli.Command definition for the "run"
// command.
func RunCommandBuilder(meta meta.Meta) *cli.Command {
	source := meta.Config.Source
	return &cli.Command{
		Name:      "run",
		Usage:     "memoize the output of a command",
		UsageText: "memo run KEY [options] -- COMMAND [ARGS...]",
		Description: `Prints the standard output recorded under KEY. When there is no entry,
COMMAND runs once, its standard output is stored under KEY and printed.
A command that exits non-zero stores nothing. Arguments are not part of the
key: the same KEY always yields the first successful output.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "refresh",
				Usage:       "run the command and replace the entry",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:  "recompute-corrupt",
				Usage: "rerun the command when the entry is corrupt",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("run.recompute_corrupt", altsrc.StringSourcer(source)),
					yaml.YAML("recompute_corrupt", altsrc.StringSourcer(source)),
				),
			},
			&cli.BoolFlag{
				Name:  "tolerate-store-failure",
				Usage: "print the output even if it cannot be cached",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("run.tolerate_store_failure", altsrc.StringSourcer(source)),
					yaml.YAML("tolerate_store_failure", altsrc.StringSourcer(source)),
				),
			},
		},
		Action:   RunCommandAction,
		Metadata: map[string]any{"meta": meta},
	}
}
