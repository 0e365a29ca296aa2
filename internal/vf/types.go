package vf

import "fmt"

const (
	// HeaderSize is the on-disk size of Header.
	HeaderSize = 12

	// FixedBlockSize is the size of the binary block between name and path.
	FixedBlockSize = 40
)

// DefaultMagic is the magic written by NewFile when none is given.
var DefaultMagic = [4]byte{'V', 'F', 'M', 'F'}

// Header is the manifest prefix.
type Header struct {
	Magic           [4]byte
	ManifestVersion uint32
	EntryCount      uint32
}

// Entry describes one packaged asset. The unknown blocks are copied through
// untouched.
type Entry struct {
	FileName string

	Unknown1         [8]byte
	OriginalCRC      [4]byte
	ExportedCRC      [4]byte
	Unknown2         [4]byte
	FileSize         uint32
	Unknown4         [8]byte
	SourceFileNumber uint32
	Unknown5         [4]byte

	FilePath string
}

// NewEntry returns a zeroed entry with empty name and path.
func NewEntry() *Entry {
	return &Entry{}
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// Release drops the owned name and path.
func (e *Entry) Release() {
	e.FileName = ""
	e.FilePath = ""
}

// Name returns the file name.
func (e *Entry) Name() string { return e.FileName }

// Path returns the file path.
func (e *Entry) Path() string { return e.FilePath }

// SetName replaces the file name.
func (e *Entry) SetName(name string) { e.FileName = name }

// SetPath replaces the file path.
func (e *Entry) SetPath(path string) { e.FilePath = path }

// SetUnknown1 replaces the first opaque block; b must be 8 bytes.
func (e *Entry) SetUnknown1(b []byte) error { return setBlock(e.Unknown1[:], b, "unknown1") }

// SetOriginalCRC replaces the original CRC; b must be 4 bytes.
func (e *Entry) SetOriginalCRC(b []byte) error { return setBlock(e.OriginalCRC[:], b, "original_crc") }

// SetExportedCRC replaces the exported CRC; b must be 4 bytes.
func (e *Entry) SetExportedCRC(b []byte) error { return setBlock(e.ExportedCRC[:], b, "exported_crc") }

// SetUnknown2 replaces the second opaque block; b must be 4 bytes.
func (e *Entry) SetUnknown2(b []byte) error { return setBlock(e.Unknown2[:], b, "unknown2") }

// SetUnknown4 replaces the fourth opaque block; b must be 8 bytes.
func (e *Entry) SetUnknown4(b []byte) error { return setBlock(e.Unknown4[:], b, "unknown4") }

// SetUnknown5 replaces the fifth opaque block; b must be 4 bytes.
func (e *Entry) SetUnknown5(b []byte) error { return setBlock(e.Unknown5[:], b, "unknown5") }

func setBlock(dst, src []byte, field string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%s: expected %d bytes, got %d", field, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}
