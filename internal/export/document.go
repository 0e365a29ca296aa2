package export

import (
	"encoding/hex"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/jchantrell/ssoformats/internal/text"
	"github.com/jchantrell/ssoformats/internal/vf"
)

// TextDocument is the JSON form of a decoded string table.
type TextDocument struct {
	Format     Format       `json:"format"`
	Profile    string       `json:"profile"`
	EntryCount uint32       `json:"entry_count"`
	Entries    []TextRecord `json:"entries"`
}

// TextRecord is one string table entry. Raw values carry their bytes in
// RawValue (base64 in JSON) since they need not be valid UTF-8.
type TextRecord struct {
	Index       uint32 `json:"index"`
	Key         string `json:"key"`
	KeyOffset   uint8  `json:"key_offset"`
	ValueOffset uint8  `json:"value_offset"`
	ValueLength uint32 `json:"value_length"`
	Value       string `json:"value,omitempty"`
	RawValue    []byte `json:"raw_value,omitempty"`
}

// VFDocument is the JSON form of a decoded manifest.
type VFDocument struct {
	Format          Format     `json:"format"`
	Profile         string     `json:"profile"`
	Magic           string     `json:"magic"`
	ManifestVersion uint32     `json:"manifest_version"`
	EntryCount      uint32     `json:"entry_count"`
	Entries         []VFRecord `json:"entries"`
}

// VFRecord is one manifest entry.
type VFRecord struct {
	Index            uint32 `json:"index"`
	FileName         string `json:"file_name"`
	FilePath         string `json:"file_path"`
	FileSize         uint32 `json:"file_size"`
	SourceFileNumber uint32 `json:"source_file_number"`
	OriginalCRC      string `json:"original_crc"`
	ExportedCRC      string `json:"exported_crc"`
}

// NewTextDocument converts f for JSON output.
func NewTextDocument(f *text.File) *TextDocument {
	doc := &TextDocument{
		Format:     FormatText,
		Profile:    f.Profile().String(),
		EntryCount: f.EntryCount(),
		Entries:    make([]TextRecord, 0, f.EntryCount()),
	}

	raw := f.Profile().Value == codec.ValueRaw
	for i, e := range f.Entries() {
		rec := TextRecord{
			Index:       i,
			Key:         e.Key,
			KeyOffset:   e.KeyOffset,
			ValueOffset: e.ValueOffset,
			ValueLength: e.ValueLength,
		}
		if raw {
			rec.RawValue = []byte(e.Value)
		} else {
			rec.Value = e.Value
		}
		doc.Entries = append(doc.Entries, rec)
	}
	return doc
}

// NewVFDocument converts f for JSON output.
func NewVFDocument(f *vf.File) *VFDocument {
	doc := &VFDocument{
		Format:          FormatVF,
		Profile:         f.Profile().String(),
		Magic:           string(f.Header.Magic[:]),
		ManifestVersion: f.Header.ManifestVersion,
		EntryCount:      f.EntryCount(),
		Entries:         make([]VFRecord, 0, f.EntryCount()),
	}

	for i, e := range f.Entries() {
		doc.Entries = append(doc.Entries, VFRecord{
			Index:            i,
			FileName:         e.FileName,
			FilePath:         e.FilePath,
			FileSize:         e.FileSize,
			SourceFileNumber: e.SourceFileNumber,
			OriginalCRC:      hex.EncodeToString(e.OriginalCRC[:]),
			ExportedCRC:      hex.EncodeToString(e.ExportedCRC[:]),
		})
	}
	return doc
}
