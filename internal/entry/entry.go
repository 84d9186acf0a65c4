// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	// Magic opens every entry.
	Magic = "MEMO"

	// Version is the framing version written by this build. Bump it when the
	// header layout changes.
	Version uint8 = 1

	// HeaderSize is the fixed length of the header in bytes.
	HeaderSize = 20
)

var (
	ErrTruncated = errors.New("entry truncated")
	ErrMagic     = errors.New("bad magic")
	ErrVersion   = errors.New("unsupported format version")
	ErrFormat    = errors.New("unknown payload codec")
	ErrChecksum  = errors.New("checksum mismatch")
	ErrPayload   = errors.New("payload does not decode")
)

// Header is the decoded fixed-size prefix of an entry.
type Header struct {
	Version  uint8
	Format   Format
	Length   uint64
	Checksum uint32
}

// Encode marshals v with c and frames the result. Values rejected by Check
// are not marshaled.
func Encode(c Codec, v any) ([]byte, error) {
	if err := Check(v); err != nil {
		return nil, err
	}
	payload, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", c.Format(), err)
	}

	out := make([]byte, HeaderSize+len(payload))
	copy(out[0:4], Magic)
	out[4] = Version
	out[5] = byte(c.Format())
	binary.BigEndian.PutUint64(out[8:16], uint64(len(payload)))
	binary.BigEndian.PutUint32(out[16:20], crc32.ChecksumIEEE(payload))
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Parse validates the framing of data and returns the header and payload.
// The payload aliases data.
func Parse(data []byte) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: %d of %d header bytes", ErrTruncated, len(data), HeaderSize)
	}
	if string(data[0:4]) != Magic {
		return Header{}, nil, fmt.Errorf("%w: %q", ErrMagic, data[0:4])
	}

	h := Header{
		Version:  data[4],
		Format:   Format(data[5]),
		Length:   binary.BigEndian.Uint64(data[8:16]),
		Checksum: binary.BigEndian.Uint32(data[16:20]),
	}
	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if data[6] != 0 || data[7] != 0 {
		return h, nil, fmt.Errorf("%w: reserved bytes set", ErrVersion)
	}

	payload := data[HeaderSize:]
	if uint64(len(payload)) != h.Length {
		return h, nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrTruncated, len(payload), h.Length)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != h.Checksum {
		return h, nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, sum, h.Checksum)
	}
	return h, payload, nil
}

// Decode parses data and unmarshals its payload into v using the codec named
// in the header.
func Decode(data []byte, v any) (Header, error) {
	h, payload, err := Parse(data)
	if err != nil {
		return h, err
	}
	c, err := CodecFor(h.Format)
	if err != nil {
		return h, err
	}
	if err := c.Unmarshal(payload, v); err != nil {
		return h, fmt.Errorf("%w: %s: %w", ErrPayload, h.Format, err)
	}
	return h, nil
}
