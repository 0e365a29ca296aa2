package vf

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/jchantrell/ssoformats/internal/collection"
)

// File is a decoded manifest. Header.EntryCount always equals the number
// of entries.
type File struct {
	Header  Header
	entries *collection.Collection[*Entry]
	opts    *Options
}

// NewFile returns an empty manifest with the given magic and version.
func NewFile(magic [4]byte, version uint32, opts *Options) *File {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &File{
		Header:  Header{Magic: magic, ManifestVersion: version},
		entries: collection.New(NewEntry, opts.MaxEntries),
		opts:    opts,
	}
}

// ReadHeader reads the 12-byte header.
func ReadHeader(r *codec.Reader) (Header, error) {
	b, err := r.ReadExact(HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}
	var h Header
	copy(h.Magic[:], b[0:4])
	h.ManifestVersion = binary.LittleEndian.Uint32(b[4:8])
	h.EntryCount = binary.LittleEndian.Uint32(b[8:12])
	return h, nil
}

// WriteHeader writes the 12-byte header.
func WriteHeader(w *codec.Writer, h Header) error {
	var buf [HeaderSize]byte
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.ManifestVersion)
	binary.LittleEndian.PutUint32(buf[8:12], h.EntryCount)
	if err := w.WriteExact(buf[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Read decodes a complete manifest. If any entry fails to decode, the
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

	f := NewFile(header.Magic, header.ManifestVersion, opts)

	slog.Debug("Reading VF file",
		"magic", string(header.Magic[:]),
		"manifest_version", header.ManifestVersion,
		"entry_count", header.EntryCount)

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
	f.syncCount()

	return f, nil
}

// Write encodes the header followed by every entry. It stops at the first
// failure; the destination may then hold a partial manifest.
func (f *File) Write(w io.Writer) error {
	cw := codec.NewWriter(w)

	f.syncCount()
	if err := WriteHeader(cw, f.Header); err != nil {
		return err
	}

	for i, e := range f.entries.All() {
		if err := EncodeEntry(cw, e); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	slog.Debug("Wrote VF file", "entry_count", f.Header.EntryCount, "bytes", cw.Offset())
	return nil
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
	added.FileName = f.opts.Profile.Clamp(codec.FieldName, added.FileName)
	added.FilePath = f.opts.Profile.Clamp(codec.FieldPath, added.FilePath)
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

// Resize grows the manifest with empty entries or releases the tail.
func (f *File) Resize(n uint32) error {
	if err := f.entries.Resize(n); err != nil {
		return fmt.Errorf("resizing to %d entries: %w", n, err)
	}
	f.syncCount()
	return nil
}

// Free releases every entry. The file remains usable as an empty manifest.
func (f *File) Free() {
	f.entries.Free()
	f.syncCount()
}

func (f *File) syncCount() {
	f.Header.EntryCount = f.entries.Count()
}
