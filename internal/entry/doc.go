// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package entry defines the on-disk framing of a memoized value.
//
// Every entry is a fixed 20-byte header followed by the encoded payload:
//
//	offset size field
//	0      4    magic "MEMO"
//	4      1    format version
//	5      1    payload codec (1 msgpack, 2 yaml)
//	6      2    reserved, must be zero
//	8      8    payload length, big endian
//	16     4    CRC-32 (IEEE) of the payload, big endian
//
// Decode rejects anything that does not match the header exactly, so a
// truncated write or an entry produced by an incompatible build is reported
// as corrupt instead of decoding into a zero value.
//
// Encode refuses values that would not come back intact: funcs, channels and
// structs with unexported fields (unless tagged "-"). Values held in
// interfaces decode to the codec's own types, int64 for any msgpack integer
// and int for a yaml one, not necessarily the type that was stored.
package entry
