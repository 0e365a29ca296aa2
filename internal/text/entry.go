package text

import (
	"fmt"
	"log/slog"

	"github.com/jchantrell/ssoformats/internal/codec"
)

const (
	// valueFraming is the number of bytes counted by the raw value length
	// that follow the payload and are not part of it.
	valueFraming = 2

	// DefaultMaxValueLength bounds a single value payload in bytes.
	DefaultMaxValueLength = 1 << 20
)

// Options configures text decoding.
type Options struct {
	// Profile selects value projection and string storage.
	Profile codec.Profile

	// MaxValueLength rejects value payloads above this many bytes as corrupt.
	MaxValueLength uint32

	// MaxEntries limits the entry count a header may announce.
	MaxEntries uint32

	// BufferSize is the initial scratch size of the stream reader.
	BufferSize int
}

// DefaultOptions returns narrow/heap decoding with conservative limits.
func DefaultOptions() *Options {
	return &Options{
		Profile:        codec.DefaultProfile(),
		MaxValueLength: DefaultMaxValueLength,
		MaxEntries:     1 << 20,
		BufferSize:     codec.DefaultBufferSize,
	}
}

// DecodeEntry reads one record from r into e, overwriting every field.
//
// Wire layout:
//
//	key_length u8, unknown [2], key_offset u8
//	key [key_length]           shifted by key_offset
//	unknown2 [4], unknown3 [4]
//	raw_value_length u32       payload length + 2
//	unknown4 u8, unknown5 u8, unknown6 u8
//	value [raw_value_length-2] shifted by a key derived from value[1]
//	trailer [2]                discarded
func DecodeEntry(r *codec.Reader, e *Entry, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	*e = Entry{}

	prefix, err := r.ReadExact(4)
	if err != nil {
		return fmt.Errorf("reading key prefix: %w", err)
	}
	e.KeyLength = prefix[0]
	copy(e.Unknown[:], prefix[1:3])
	e.KeyOffset = prefix[3]

	if e.KeyLength > 0 {
		key, err := r.ReadExact(int(e.KeyLength))
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}
		codec.DecodeShift(key, e.KeyOffset)
		e.Key = opts.Profile.Clamp(codec.FieldKey, string(key))
	}

	if err := r.Fixed(e.Unknown2[:]); err != nil {
		return fmt.Errorf("reading unknown2: %w", err)
	}
	if err := r.Fixed(e.Unknown3[:]); err != nil {
		return fmt.Errorf("reading unknown3: %w", err)
	}

	rawValueLength, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("reading value length: %w", err)
	}
	if rawValueLength < valueFraming {
		return fmt.Errorf("%w: raw value length %d is below the %d framing bytes",
			codec.ErrCorruptData, rawValueLength, valueFraming)
	}
	valueBytes := rawValueLength - valueFraming

	maxValue := opts.MaxValueLength
	if maxValue == 0 {
		maxValue = DefaultMaxValueLength
	}
	if valueBytes > maxValue {
		return fmt.Errorf("%w: value length %d exceeds limit %d", codec.ErrCorruptData, valueBytes, maxValue)
	}

	meta, err := r.ReadExact(3)
	if err != nil {
		return fmt.Errorf("reading value metadata: %w", err)
	}
	e.Unknown4, e.Unknown5, e.Unknown6 = meta[0], meta[1], meta[2]

	if valueBytes > 0 {
		payload, err := r.ReadExact(int(valueBytes))
		if err != nil {
			return fmt.Errorf("reading value: %w", err)
		}

		e.ValueOffset = codec.DeriveValueShift(payload)
		codec.DecodeShift(payload, e.ValueOffset)
		e.Value = opts.Profile.Clamp(codec.FieldValue, decodeValue(payload, opts.Profile.Value))
		e.ValueLength = uint32(len(e.Value))
	}

	// payload aliases the reader scratch, so it must be consumed first
	if err := r.Skip(valueFraming); err != nil {
		return fmt.Errorf("reading value trailer: %w", err)
	}

	slog.Debug("Decoded text entry",
		"key", e.Key,
		"key_offset", e.KeyOffset,
		"value_offset", e.ValueOffset,
		"value_length", e.ValueLength)

	return nil
}

func decodeValue(plain []byte, mode codec.ValueMode) string {
	if mode == codec.ValueRaw {
		return string(plain)
	}
	return codec.ProjectNarrow(plain)
}

// EncodeEntry is not supported for the text format: the value cipher key
// and the two trailer bytes cannot be reproduced from a decoded entry. It
// always fails with codec.ErrNotImplemented and writes nothing.
func EncodeEntry(w *codec.Writer, e *Entry) error {
	return fmt.Errorf("encoding text entry: %w", codec.ErrNotImplemented)
}
