package text

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record describes one entry as the game's tools would have written it.
type record struct {
	key        string
	keyOffset  uint8
	value      []byte // plain UTF-16LE payload
	valueShift uint8
	rawLength  *uint32 // overrides len(value)+2 when set
	trailer    [2]byte
}

func (rec record) bytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(uint8(len(rec.key)))
	buf.Write([]byte{0xaa, 0xbb})
	buf.WriteByte(rec.keyOffset)
	buf.Write(codec.Encoded([]byte(rec.key), rec.keyOffset))
	buf.Write([]byte{1, 2, 3, 4})
	buf.Write([]byte{5, 6, 7, 8})

	raw := uint32(len(rec.value)) + 2
	if rec.rawLength != nil {
		raw = *rec.rawLength
	}
	_ = binary.Write(&buf, binary.LittleEndian, raw)
	buf.Write([]byte{0x11, 0x22, 0x33})
	buf.Write(codec.Encoded(rec.value, rec.valueShift))
	buf.Write(rec.trailer[:])
	return buf.Bytes()
}

func fileBytes(records ...record) []byte {
	var buf bytes.Buffer
	buf.Write([]byte("TXT\x00\x01\x00\x00\x00\x00\x00\x00\x00"))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(records)))
	for _, rec := range records {
		buf.Write(rec.bytes())
	}
	return buf.Bytes()
}

func u32(v uint32) *uint32 { return &v }

func decodeOne(t *testing.T, rec record, opts *Options) (*Entry, error) {
	t.Helper()
	e := NewEntry()
	err := DecodeEntry(codec.NewReader(bytes.NewReader(rec.bytes()), nil), e, opts)
	return e, err
}

func TestDecodeEntry_NarrowValue(t *testing.T) {
	e, err := decodeOne(t, record{
		key:        "MENU_START",
		keyOffset:  0x21,
		value:      codec.WidenNarrow("Start Game"),
		valueShift: 0x37,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "MENU_START", e.Key)
	assert.Equal(t, uint8(10), e.KeyLength)
	assert.Equal(t, uint8(0x21), e.KeyOffset)
	assert.Equal(t, [2]byte{0xaa, 0xbb}, e.Unknown)
	assert.Equal(t, [4]byte{1, 2, 3, 4}, e.Unknown2)
	assert.Equal(t, [4]byte{5, 6, 7, 8}, e.Unknown3)
	assert.Equal(t, uint8(0x11), e.Unknown4)
	assert.Equal(t, uint8(0x22), e.Unknown5)
	assert.Equal(t, uint8(0x33), e.Unknown6)
	assert.Equal(t, "Start Game", e.Value)
	assert.Equal(t, uint32(10), e.ValueLength)
	assert.Equal(t, uint8(0x37), e.ValueOffset)
}

func TestDecodeEntry_NonASCIIProjectsToQuestionMark(t *testing.T) {
	// "Aé" followed by a CJK character
	value := []byte{0x41, 0x00, 0xe9, 0x00, 0x2d, 0x4e}
	e, err := decodeOne(t, record{key: "k", value: value, valueShift: 5}, nil)
	require.NoError(t, err)

	// the derived key only matches when the second plain byte is zero
	assert.Equal(t, uint8(5), e.ValueOffset)
	assert.Equal(t, "A??", e.Value)
	assert.Equal(t, uint32(3), e.ValueLength)
}

func TestDecodeEntry_RawValueMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Profile.Value = codec.ValueRaw

	plain := codec.WidenNarrow("Hi")
	e, err := decodeOne(t, record{key: "k", value: plain, valueShift: 9}, opts)
	require.NoError(t, err)

	assert.Equal(t, string(plain), e.Value)
	assert.Equal(t, uint32(4), e.ValueLength)
}

func TestDecodeEntry_RawLengthOneIsCorrupt(t *testing.T) {
	_, err := decodeOne(t, record{key: "k", rawLength: u32(1)}, nil)
	require.ErrorIs(t, err, codec.ErrCorruptData)
}

func TestDecodeEntry_RawLengthZeroIsCorrupt(t *testing.T) {
	_, err := decodeOne(t, record{key: "k", rawLength: u32(0)}, nil)
	require.ErrorIs(t, err, codec.ErrCorruptData)
}

func TestDecodeEntry_RawLengthTwoIsEmptyValue(t *testing.T) {
	input := record{key: "EMPTY", keyOffset: 3}.bytes()
	r := codec.NewReader(bytes.NewReader(input), nil)

	e := NewEntry()
	require.NoError(t, DecodeEntry(r, e, nil))

	assert.Equal(t, "EMPTY", e.Key)
	assert.Equal(t, "", e.Value)
	assert.Equal(t, uint32(0), e.ValueLength)
	assert.Equal(t, uint8(0), e.ValueOffset)
	// the trailer is consumed even without a payload
	assert.Equal(t, int64(len(input)), r.Offset())
}

func TestDecodeEntry_EmptyKey(t *testing.T) {
	e, err := decodeOne(t, record{value: codec.WidenNarrow("v")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", e.Key)
	assert.Equal(t, uint8(0), e.KeyLength)
	assert.Equal(t, "v", e.Value)
}

func TestDecodeEntry_SingleBytePayload(t *testing.T) {
	e, err := decodeOne(t, record{key: "k", value: []byte{0x41}, valueShift: 0x10}, nil)
	require.NoError(t, err)

	// no second byte: the key is 0, the byte stays ciphered and the odd
	// byte is dropped by the projection
	assert.Equal(t, uint8(0), e.ValueOffset)
	assert.Equal(t, "", e.Value)
}

func TestDecodeEntry_ValueAboveLimitIsCorrupt(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxValueLength = 4

	_, err := decodeOne(t, record{key: "k", value: codec.WidenNarrow("toolong")}, opts)
	require.ErrorIs(t, err, codec.ErrCorruptData)
}

func TestDecodeEntry_ShortReads(t *testing.T) {
	full := record{key: "KEY", keyOffset: 1, value: codec.WidenNarrow("value"), valueShift: 2}.bytes()

	for cut := 0; cut < len(full); cut++ {
		e := NewEntry()
		err := DecodeEntry(codec.NewReader(bytes.NewReader(full[:cut]), nil), e, nil)
		require.ErrorIs(t, err, codec.ErrIO, "cut at %d", cut)
	}
}

func TestDecodeEntry_InlineStorageTruncates(t *testing.T) {
	opts := DefaultOptions()
	opts.Profile.Storage = codec.StorageInline

	long := strings.Repeat("x", codec.InlineValueCap+100)
	e, err := decodeOne(t, record{key: "k", value: codec.WidenNarrow(long), valueShift: 1}, opts)
	require.NoError(t, err)

	assert.Len(t, e.Value, codec.InlineValueCap)
	assert.Equal(t, uint32(codec.InlineValueCap), e.ValueLength)
}

func TestEncodeEntry_NotImplemented(t *testing.T) {
	e := NewEntry()
	e.SetKey("KEY")
	e.SetValue("value")
	before := *e

	var buf bytes.Buffer
	buf.WriteString("existing")

	err := EncodeEntry(codec.NewWriter(&buf), e)
	require.ErrorIs(t, err, codec.ErrNotImplemented)

	// deterministic: a second attempt fails the same way
	require.ErrorIs(t, EncodeEntry(codec.NewWriter(&buf), e), codec.ErrNotImplemented)

	assert.Equal(t, "existing", buf.String())
	assert.Equal(t, before, *e)
}

func TestRead_File(t *testing.T) {
	data := fileBytes(
		record{key: "A", keyOffset: 1, value: codec.WidenNarrow("Alpha"), valueShift: 3},
		record{key: "B", keyOffset: 2},
		record{key: "C", keyOffset: 3, value: codec.WidenNarrow("Gamma"), valueShift: 200},
	)

	f, err := Read(bytes.NewReader(data), nil)
	require.NoError(t, err)
	defer f.Free()

	assert.Equal(t, uint32(3), f.EntryCount())
	assert.Equal(t, uint32(3), f.Header.EntryCount)

	var keys, values []string
	for _, e := range f.Entries() {
		keys = append(keys, e.Key)
		values = append(values, e.Value)
	}
	assert.Equal(t, []string{"A", "B", "C"}, keys)
	assert.Equal(t, []string{"Alpha", "", "Gamma"}, values)
}

func TestRead_CorruptEntryAbortsLoad(t *testing.T) {
	data := fileBytes(
		record{key: "A", value: codec.WidenNarrow("ok")},
		record{key: "B", rawLength: u32(1)},
	)

	f, err := Read(bytes.NewReader(data), nil)
	require.ErrorIs(t, err, codec.ErrCorruptData)
	assert.Nil(t, f)
}

func TestRead_TruncatedHeader(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 2, 3}), nil)
	require.ErrorIs(t, err, codec.ErrIO)
}

func TestRead_EntryCountAboveLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxEntries = 2

	data := fileBytes(record{key: "A"}, record{key: "B"}, record{key: "C"})
	_, err := Read(bytes.NewReader(data), opts)
	require.ErrorIs(t, err, codec.ErrAllocation)
}

func TestRead_HugeCountWithoutBody(t *testing.T) {
	data := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(data[12:], 1<<20)

	var f *File
	var err error
	allocs := testing.AllocsPerRun(5, func() {
		f, err = Read(bytes.NewReader(data), nil)
	})
	assert.Nil(t, f)
	require.ErrorIs(t, err, codec.ErrIO)
	assert.Less(t, allocs, float64(1000))
}

func TestFile_WriteNotImplemented(t *testing.T) {
	f, err := Read(bytes.NewReader(fileBytes(record{key: "A"})), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.ErrorIs(t, f.Write(&buf), codec.ErrNotImplemented)
	assert.Zero(t, buf.Len())
	assert.Equal(t, uint32(1), f.EntryCount())
}

func TestFile_HeaderRoundTrip(t *testing.T) {
	h := Header{Unknown: [12]byte{'T', 'X', 'T'}, EntryCount: 42}

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(codec.NewWriter(&buf), h))
	assert.Equal(t, HeaderSize, buf.Len())

	got, err := ReadHeader(codec.NewReader(&buf, nil))
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestFile_EntryManagementKeepsCountInSync(t *testing.T) {
	f := NewFile(nil)

	src := NewEntry()
	src.SetKey("NEW")
	src.SetValue("value")

	require.NoError(t, f.AddEntry(src))
	assert.Equal(t, uint32(1), f.Header.EntryCount)

	src.SetKey("MUTATED")
	stored, err := f.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, "NEW", stored.Key)

	require.NoError(t, f.Resize(4))
	assert.Equal(t, uint32(4), f.Header.EntryCount)
	grown, err := f.Entry(3)
	require.NoError(t, err)
	assert.Equal(t, Entry{}, *grown)

	require.ErrorIs(t, f.RemoveEntry(4), codec.ErrIndexOutOfRange)
	assert.Equal(t, uint32(4), f.Header.EntryCount)

	require.NoError(t, f.RemoveEntry(0))
	assert.Equal(t, uint32(3), f.Header.EntryCount)
	assert.Equal(t, "", stored.Key, "removed entry releases its key")

	require.NoError(t, f.Resize(0))
	assert.Equal(t, uint32(0), f.Header.EntryCount)
	f.Free()
	assert.Equal(t, uint32(0), f.EntryCount())
}

func TestFile_AddEntryClampsInline(t *testing.T) {
	opts := DefaultOptions()
	opts.Profile.Storage = codec.StorageInline
	f := NewFile(opts)

	src := NewEntry()
	src.SetValue(strings.Repeat("v", codec.InlineValueCap*2))
	require.NoError(t, f.AddEntry(src))

	stored, err := f.Entry(0)
	require.NoError(t, err)
	assert.Len(t, stored.Value, codec.InlineValueCap)
	assert.Len(t, src.Value, codec.InlineValueCap*2)
}

func TestEntry_SetKeyTruncates(t *testing.T) {
	e := NewEntry()
	e.SetKey(strings.Repeat("k", 300))
	assert.Len(t, e.Key, MaxKeyLength)
	assert.Equal(t, uint8(MaxKeyLength), e.KeyLength)
}
