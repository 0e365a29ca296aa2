package text

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/jchantrell/ssoformats/internal/collection"
)

// File is a decoded string table. Header.EntryCount always equals the
// number of entries.
type File struct {
	Header  Header
	entries *collection.Collection[*Entry]
	opts    *Options
}

// NewFile returns an empty string table.
func NewFile(opts *Options) *File {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &File{
		entries: collection.New(NewEntry, opts.MaxEntries),
		opts:    opts,
	}
}

// ReadHeader reads the 16-byte header.
func ReadHeader(r *codec.Reader) (Header, error) {
	var h Header
	if err := r.Fixed(h.Unknown[:]); err != nil {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}
	count, err := r.Uint32()
	if err != nil {
		return Header{}, fmt.Errorf("reading entry count: %w", err)
	}
	h.EntryCount = count
	return h, nil
}

// WriteHeader writes the 16-byte header.
func WriteHeader(w *codec.Writer, h Header) error {
	var buf [HeaderSize]byte
	copy(buf[:12], h.Unknown[:])
	binary.LittleEndian.PutUint32(buf[12:], h.EntryCount)
	if err := w.WriteExact(buf[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Read decodes a complete string table. If any entry fails to decode, the
// entries decoded so far are released and only the error is returned.
func Read(r io.Reader, opts *Options) (*File, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	cr := codec.NewReader(r, make([]byte, opts.BufferSize))

	header, err := ReadHeader(cr)
	if err != nil {
		return nil, err
	}

	f := NewFile(opts)

	slog.Debug("Reading text file",
		"entry_count", header.EntryCount,
		"profile", opts.Profile.String())

	err = f.entries.Fill(header.EntryCount, func(i uint32, e *Entry) error {
		if err := DecodeEntry(cr, e, opts); err != nil {
			return fmt.Errorf("reading entry %d at offset %d: %w", i, cr.Offset(), err)
		}
		return nil
	})
	if err != nil {
		f.Free()
		return nil, err
	}
	f.Header = header

	return f, nil
}

// Write is not supported for the text format and always fails with
// codec.ErrNotImplemented before writing anything.
func (f *File) Write(w io.Writer) error {
	return fmt.Errorf("writing text file: %w", codec.ErrNotImplemented)
}

// Profile returns the profile the file was created with.
func (f *File) Profile() codec.Profile {
	return f.opts.Profile
}

// EntryCount returns the number of entries.
func (f *File) EntryCount() uint32 {
	return f.entries.Count()
}

// Entry returns the entry at index. The entry remains owned by f.
func (f *File) Entry(index uint32) (*Entry, error) {
	return f.entries.Get(index)
}

// Entries iterates over the entries in file order.
func (f *File) Entries() iter.Seq2[uint32, *Entry] {
	return f.entries.All()
}

// AddEntry appends a deep copy of e, clamped to the file's storage profile.
func (f *File) AddEntry(e *Entry) error {
	if err := f.entries.Add(e); err != nil {
		return fmt.Errorf("adding entry: %w", err)
	}
	added, _ := f.entries.Get(f.entries.Count() - 1)
	added.SetKey(f.opts.Profile.Clamp(codec.FieldKey, added.Key))
	added.SetValue(f.opts.Profile.Clamp(codec.FieldValue, added.Value))
	f.syncCount()
	return nil
}

// RemoveEntry releases and removes the entry at index.
func (f *File) RemoveEntry(index uint32) error {
	if err := f.entries.Remove(index); err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}
	f.syncCount()
	return nil
}

// Resize grows the table with empty entries or releases the tail.
func (f *File) Resize(n uint32) error {
	if err := f.entries.Resize(n); err != nil {
		return fmt.Errorf("resizing to %d entries: %w", n, err)
	}
	f.syncCount()
	return nil
}

// Free releases every entry. The file remains usable as an empty table.
func (f *File) Free() {
	f.entries.Free()
	f.syncCount()
}

func (f *File) syncCount() {
	f.Header.EntryCount = f.entries.Count()
}
