// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/apex/log"

	"github.com/staranto/memo/internal/command"
	"github.com/staranto/memo/internal/config"
	mylog "github.com/staranto/memo/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var ctx = context.Background()

func main() {
	os.Exit(realMain(os.Args))
}

func realMain(args []string) int {
	mylog.InitLogger()

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	// Short-circuit --version/-v.
	for _, a := range args[1:] {
		if a == "--version" || a == "-v" {
			fmt.Println(version)
			return 0
		}
	}

	if err := loadEnvFile(); err != nil {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// loadEnvFile loads MEMO_ENV_FILE, or ./.env when present.
func loadEnvFile() error {
	if p := os.Getenv("MEMO_ENV_FILE"); p != "" {
		return config.LoadEnvFile(p)
	}
	if _, err := os.Stat(".env"); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Debug("skipping .env")
		}
		return nil
	}
	return config.LoadEnvFile(".env")
}
