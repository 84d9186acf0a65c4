// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// memo is the command line front end for the memo disk cache. It resolves the
// cache root, wires the CLI and delegates to internal packages.
package main
