package codec

import (
	"fmt"
	"strings"
)

// ValueMode selects how deciphered text values are turned into strings.
type ValueMode int

const (
	// ValueNarrow projects the UTF-16LE payload to one byte per code unit
	// and reports the length in code units.
	ValueNarrow ValueMode = iota
	// ValueRaw keeps the deciphered bytes verbatim and reports the length
	// in bytes.
	ValueRaw
)

func (m ValueMode) String() string {
	switch m {
	case ValueNarrow:
		return "narrow"
	case ValueRaw:
		return "raw"
	default:
		return fmt.Sprintf("ValueMode(%d)", int(m))
	}
}

// ParseValueMode parses "narrow" or "raw".
func ParseValueMode(s string) (ValueMode, error) {
	switch strings.ToLower(s) {
	case "", "narrow":
		return ValueNarrow, nil
	case "raw":
		return ValueRaw, nil
	default:
		return 0, fmt.Errorf("unsupported value mode '%s': expected narrow or raw", s)
	}
}

// Storage selects the string ownership policy of decoded entries.
type Storage int

const (
	// StorageHeap keeps strings of any length.
	StorageHeap Storage = iota
	// StorageInline bounds every string to a fixed capacity and silently
	// drops the excess bytes.
	StorageInline
)

func (s Storage) String() string {
	switch s {
	case StorageHeap:
		return "heap"
	case StorageInline:
		return "inline"
	default:
		return fmt.Sprintf("Storage(%d)", int(s))
	}
}

// ParseStorage parses "heap" or "inline".
func ParseStorage(s string) (Storage, error) {
	switch strings.ToLower(s) {
	case "", "heap":
		return StorageHeap, nil
	case "inline":
		return StorageInline, nil
	default:
		return 0, fmt.Errorf("unsupported storage '%s': expected heap or inline", s)
	}
}

// Field identifies which inline capacity applies to a string.
type Field int

const (
	FieldKey Field = iota
	FieldValue
	FieldName
	FieldPath
)

// Inline capacities in bytes, used only under StorageInline.
const (
	InlineKeyCap   = 255
	InlineValueCap = 1024
	InlinePathCap  = 260
)

// Profile bundles the two policies. It is fixed when a decoder or file is
// created and never changes afterwards.
type Profile struct {
	Value   ValueMode
	Storage Storage
}

// DefaultProfile returns the narrow projection with heap-owned strings.
func DefaultProfile() Profile {
	return Profile{Value: ValueNarrow, Storage: StorageHeap}
}

func (p Profile) String() string {
	return p.Value.String() + "/" + p.Storage.String()
}

// Clamp applies the storage policy to s. Under StorageHeap s is returned
// unchanged.
func (p Profile) Clamp(field Field, s string) string {
	if p.Storage != StorageInline {
		return s
	}
	limit := InlineCap(field)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

// InlineCap returns the inline capacity for field.
func InlineCap(field Field) int {
	switch field {
	case FieldKey:
		return InlineKeyCap
	case FieldValue:
		return InlineValueCap
	default:
		return InlinePathCap
	}
}
