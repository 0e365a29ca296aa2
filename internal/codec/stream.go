package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultBufferSize is the initial scratch size handed to NewReader by the
// file readers.
const DefaultBufferSize = 4096

// Reader reads exact-length frames from an underlying stream. The scratch
// buffer belongs to the Reader; slices returned by ReadExact alias it and are
// only valid until the next call.
type Reader struct {
	r       io.Reader
	scratch []byte
	offset  int64
}

// NewReader wraps r. buf is used as the initial scratch space and may be nil.
func NewReader(r io.Reader, buf []byte) *Reader {
	if buf == nil {
		buf = make([]byte, DefaultBufferSize)
	}
	return &Reader{r: r, scratch: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// ReadExact reads exactly n bytes. A short read fails with ErrIO.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrCorruptData, n)
	}
	if n > len(r.scratch) {
		r.scratch = make([]byte, n)
	}
	buf := r.scratch[:n]
	read, err := io.ReadFull(r.r, buf)
	r.offset += int64(read)
	if err != nil {
		return nil, fmt.Errorf("%w: read %d of %d bytes at offset %d: %w", ErrIO, read, n, r.offset, err)
	}
	return buf, nil
}

// Fixed fills dst completely.
func (r *Reader) Fixed(dst []byte) error {
	b, err := r.ReadExact(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Skip consumes and discards n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.ReadExact(n)
	return err
}

// Writer writes exact-length frames to an underlying stream.
type Writer struct {
	w       io.Writer
	scratch [4]byte
	offset  int64
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return w.offset
}

// WriteExact writes all of b. A short write fails with ErrIO.
func (w *Writer) WriteExact(b []byte) error {
	n, err := w.w.Write(b)
	w.offset += int64(n)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("%w: wrote %d of %d bytes at offset %d: %w", ErrIO, n, len(b), w.offset, err)
	}
	return nil
}

// Uint8 writes a single byte.
func (w *Writer) Uint8(v uint8) error {
	w.scratch[0] = v
	return w.WriteExact(w.scratch[:1])
}

// Uint32 writes v little-endian.
func (w *Writer) Uint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.scratch[:], v)
	return w.WriteExact(w.scratch[:4])
}

// String writes the bytes of s without a terminator.
func (w *Writer) String(s string) error {
	return w.WriteExact([]byte(s))
}
