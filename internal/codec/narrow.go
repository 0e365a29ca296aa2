package codec

import "encoding/binary"

// ProjectNarrow reduces little-endian UTF-16 code units to one byte each.
// Units below 0x80 keep their value; anything else becomes '?'. A trailing
// odd byte is ignored, so the result always has len(raw)/2 bytes.
//
// This is deliberately lossy: surrogate pairs produce two '?' and no attempt
// is made at real transcoding.
func ProjectNarrow(raw []byte) string {
	units := len(raw) / 2
	out := make([]byte, units)
	for i := 0; i < units; i++ {
		wc := binary.LittleEndian.Uint16(raw[i*2:])
		if wc < 0x80 {
			out[i] = byte(wc)
		} else {
			out[i] = '?'
		}
	}
	return string(out)
}

// WidenNarrow expands each byte of s into one little-endian code unit. For
// ASCII input it is the inverse of ProjectNarrow.
func WidenNarrow(s string) []byte {
	out := make([]byte, len(s)*2)
	for i := 0; i < len(s); i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s[i]))
	}
	return out
}
