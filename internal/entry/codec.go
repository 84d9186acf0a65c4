// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format identifies the codec used for an entry's payload. The numeric value
// is persisted in the header, so existing values must never be renumbered.
type Format uint8

const (
	FormatMsgpack Format = 1
	FormatYAML    Format = 2
)

func (f Format) String() string {
	switch f {
	case FormatMsgpack:
		return "msgpack"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat maps a codec name, as found in config or on the command line,
// to its Format. The empty string selects the default.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "msgpack":
		return FormatMsgpack, nil
	case "yaml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("unknown codec %q: must be one of %v", s, Formats())
}

// Formats returns the names of all known codecs.
func Formats() []string {
	return []string{FormatMsgpack.String(), FormatYAML.String()}
}

// Codec converts values to and from payload bytes.
type Codec interface {
	Format() Format
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	// Msgpack is the default codec. Exported struct fields, maps, slices,
	// pointers and time.Time round-trip.
	Msgpack Codec = msgpackCodec{}

	// YAML trades size and precision of some numeric types for a payload
	// that can be read with a text editor.
	YAML Codec = yamlCodec{}
)

// CodecFor returns the codec registered for f.
func CodecFor(f Format) (Codec, error) {
	switch f {
	case FormatMsgpack:
		return Msgpack, nil
	case FormatYAML:
		return YAML, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFormat, f)
}

type msgpackCodec struct{}

func (msgpackCodec) Format() Format { return FormatMsgpack }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes numbers held in interfaces as int64, uint64 or float64,
// whatever width they were written with.
func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}

type yamlCodec struct{}

func (yamlCodec) Format() Format { return FormatYAML }

// Marshal converts the panic yaml.v3 raises for unsupported kinds (funcs,
// channels) into an error.
func (yamlCodec) Marshal(v any) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("yaml: %v", r)
		}
	}()
	return yaml.Marshal(v)
}

func (yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
