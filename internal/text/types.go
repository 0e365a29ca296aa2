package text

// HeaderSize is the on-disk size of Header.
const HeaderSize = 16

// MaxKeyLength is the largest key the one-byte length prefix can describe.
const MaxKeyLength = 255

// Header is the fixed prefix of a string table. Only the entry count is
// understood; the leading 12 bytes are preserved as-is.
type Header struct {
	Unknown    [12]byte
	EntryCount uint32
}

// Entry is one localized string record.
//
// KeyOffset is read from disk and deciphers the key. ValueOffset is not
// stored anywhere: it is derived from the value ciphertext while decoding
// and kept for inspection only.
type Entry struct {
	KeyLength uint8
	Unknown   [2]byte
	KeyOffset uint8
	Key       string

	Unknown2 [4]byte
	Unknown3 [4]byte

	// ValueLength is len(Value): code units for narrow values, bytes for
	// raw values.
	ValueLength uint32
	Unknown4    uint8
	Unknown5    uint8
	Unknown6    uint8

	ValueOffset uint8
	Value       string
}

// NewEntry returns a zeroed entry with empty key and value.
func NewEntry() *Entry {
	return &Entry{}
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	// strings are immutable, a struct copy shares nothing mutable
	return &c
}

// Release drops the owned key and value.
func (e *Entry) Release() {
	e.Key = ""
	e.KeyLength = 0
	e.Value = ""
	e.ValueLength = 0
}

// SetKey replaces the key, truncating it to MaxKeyLength bytes so that
// KeyLength always describes it.
func (e *Entry) SetKey(key string) {
	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}
	e.Key = key
	e.KeyLength = uint8(len(key))
}

// SetValue replaces the value and its reported length.
func (e *Entry) SetValue(value string) {
	e.Value = value
	e.ValueLength = uint32(len(value))
}
