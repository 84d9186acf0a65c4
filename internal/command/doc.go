// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the CLI command set for memo. It wires flags,
// validators and actions for subcommands that inspect and populate a cache
// root.
package command
