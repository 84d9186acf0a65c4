// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package memo caches the results of expensive, deterministic computations on
// disk under caller-supplied keys.
//
// The key alone identifies an entry. Arguments are never hashed into it, so
// every call through a wrapper built by Decorate or Wrap shares one entry:
//
//	add := memo.DecorateVariadic[int, int](m, "sum_1_2")(sum)
//	add(1, 2) // computes 3 and stores it
//	add(5, 9) // returns the stored 3
//
// A wrapper is only safe when the wrapped function is always called with the
// same logical inputs. Use Invoke with a distinct key per call site otherwise.
//
// On a miss the computation runs exactly once; if it fails its error is
// returned unchanged and nothing is written. A corrupt entry is reported, not
// recomputed, unless WithRecomputeOnCorrupt is set. A failure to store a
// freshly computed value is returned alongside the valid value unless
// WithTolerateStoreFailure is set, in which case it is logged.
package memo
