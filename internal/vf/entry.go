package vf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/jchantrell/ssoformats/internal/codec"
)

// DefaultMaxStringLength bounds name and path length prefixes.
const DefaultMaxStringLength = 1 << 16

// Options configures manifest decoding.
type Options struct {
	// Profile selects string storage. The value mode does not apply to
	// manifests.
	Profile codec.Profile

	// MaxStringLength rejects name or path prefixes above this many bytes.
	MaxStringLength uint32

	// MaxEntries limits the entry count a header may announce.
	MaxEntries uint32

	// BufferSize is the initial scratch size of the stream reader.
	BufferSize int
}

// DefaultOptions returns heap storage with conservative limits.
func DefaultOptions() *Options {
	return &Options{
		Profile:         codec.DefaultProfile(),
		MaxStringLength: DefaultMaxStringLength,
		MaxEntries:      1 << 20,
		BufferSize:      codec.DefaultBufferSize,
	}
}

// DecodeEntry reads one record from r into e, overwriting every field.
//
// Wire layout:
//
//	name_len u32, name [name_len]
//	unknown1 [8], original_crc [4], exported_crc [4], unknown2 [4],
//	file_size u32, unknown4 [8], source_file_number u32, unknown5 [4]
//	path_len u32, path [path_len]
func DecodeEntry(r *codec.Reader, e *Entry, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	*e = Entry{}

	name, err := readString(r, opts)
	if err != nil {
		return fmt.Errorf("reading file name: %w", err)
	}
	e.FileName = opts.Profile.Clamp(codec.FieldName, name)

	block, err := r.ReadExact(FixedBlockSize)
	if err != nil {
		return fmt.Errorf("reading fixed block: %w", err)
	}
	unpackFixed(block, e)

	path, err := readString(r, opts)
	if err != nil {
		return fmt.Errorf("reading file path: %w", err)
	}
	e.FilePath = opts.Profile.Clamp(codec.FieldPath, path)

	slog.Debug("Decoded VF entry",
		"name", e.FileName,
		"path", e.FilePath,
		"file_size", e.FileSize,
		"source_file_number", e.SourceFileNumber)

	return nil
}

// EncodeEntry writes e in the layout read by DecodeEntry.
func EncodeEntry(w *codec.Writer, e *Entry) error {
	if err := writeString(w, e.FileName); err != nil {
		return fmt.Errorf("writing file name: %w", err)
	}

	var block [FixedBlockSize]byte
	packFixed(block[:], e)
	if err := w.WriteExact(block[:]); err != nil {
		return fmt.Errorf("writing fixed block: %w", err)
	}

	if err := writeString(w, e.FilePath); err != nil {
		return fmt.Errorf("writing file path: %w", err)
	}
	return nil
}

func readString(r *codec.Reader, opts *Options) (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}

	limit := opts.MaxStringLength
	if limit == 0 {
		limit = DefaultMaxStringLength
	}
	if n > limit {
		return "", fmt.Errorf("%w: length prefix %d exceeds limit %d", codec.ErrCorruptData, n, limit)
	}

	b, err := r.ReadExact(int(n))
	if err != nil {
		return "", err
	}
	return cString(b), nil
}

func writeString(w *codec.Writer, s string) error {
	s = cString([]byte(s))
	if err := w.Uint32(uint32(len(s))); err != nil {
		return err
	}
	return w.String(s)
}

// cString stops at the first NUL, matching how the strings are terminated
// once loaded.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func unpackFixed(b []byte, e *Entry) {
	copy(e.Unknown1[:], b[0:8])
	copy(e.OriginalCRC[:], b[8:12])
	copy(e.ExportedCRC[:], b[12:16])
	copy(e.Unknown2[:], b[16:20])
	e.FileSize = binary.LittleEndian.Uint32(b[20:24])
	copy(e.Unknown4[:], b[24:32])
	e.SourceFileNumber = binary.LittleEndian.Uint32(b[32:36])
	copy(e.Unknown5[:], b[36:40])
}

func packFixed(b []byte, e *Entry) {
	copy(b[0:8], e.Unknown1[:])
	copy(b[8:12], e.OriginalCRC[:])
	copy(b[12:16], e.ExportedCRC[:])
	copy(b[16:20], e.Unknown2[:])
	binary.LittleEndian.PutUint32(b[20:24], e.FileSize)
	copy(b[24:32], e.Unknown4[:])
	binary.LittleEndian.PutUint32(b[32:36], e.SourceFileNumber)
	copy(b[36:40], e.Unknown5[:])
}
