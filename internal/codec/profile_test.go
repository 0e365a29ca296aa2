package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValueMode(t *testing.T) {
	m, err := ParseValueMode("RAW")
	require.NoError(t, err)
	assert.Equal(t, ValueRaw, m)

	m, err = ParseValueMode("")
	require.NoError(t, err)
	assert.Equal(t, ValueNarrow, m)

	_, err = ParseValueMode("utf8")
	assert.Error(t, err)
}

func TestParseStorage(t *testing.T) {
	s, err := ParseStorage("inline")
	require.NoError(t, err)
	assert.Equal(t, StorageInline, s)

	_, err = ParseStorage("stack")
	assert.Error(t, err)
}

func TestProfileClamp(t *testing.T) {
	long := strings.Repeat("x", 2000)

	heap := DefaultProfile()
	assert.Equal(t, long, heap.Clamp(FieldValue, long))

	inline := Profile{Value: ValueNarrow, Storage: StorageInline}
	assert.Len(t, inline.Clamp(FieldKey, long), InlineKeyCap)
	assert.Len(t, inline.Clamp(FieldValue, long), InlineValueCap)
	assert.Len(t, inline.Clamp(FieldName, long), InlinePathCap)
	assert.Len(t, inline.Clamp(FieldPath, long), InlinePathCap)
	assert.Equal(t, "short", inline.Clamp(FieldPath, "short"))
}

func TestProfileString(t *testing.T) {
	assert.Equal(t, "narrow/heap", DefaultProfile().String())
	assert.Equal(t, "raw/inline", Profile{Value: ValueRaw, Storage: StorageInline}.String())
}
