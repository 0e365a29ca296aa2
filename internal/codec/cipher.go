package codec

// DecodeShift reverses the additive byte obfuscation in place: every byte
// becomes (b + shift) mod 256.
func DecodeShift(buf []byte, shift uint8) {
	for i := range buf {
		buf[i] += shift
	}
}

// EncodeShift applies the additive obfuscation in place: every byte becomes
// (b - shift) mod 256. It is the inverse of DecodeShift, not a repeat of it.
func EncodeShift(buf []byte, shift uint8) {
	for i := range buf {
		buf[i] -= shift
	}
}

// Decoded returns a deciphered copy of buf, leaving buf untouched.
func Decoded(buf []byte, shift uint8) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	DecodeShift(out, shift)
	return out
}

// Encoded returns an obfuscated copy of buf, leaving buf untouched.
func Encoded(buf []byte, shift uint8) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	EncodeShift(out, shift)
	return out
}

// DeriveValueShift recovers the per-record value key from the ciphertext
// itself. Text values are UTF-16LE, so the high byte of the first code unit
// is zero for any ASCII character; the encoder's shift therefore shows up in
// the second ciphertext byte as (0 - shift) mod 256, and the decode shift is
// its negation. Payloads shorter than two bytes carry no key and use 0.
func DeriveValueShift(ciphertext []byte) uint8 {
	if len(ciphertext) < 2 {
		return 0
	}
	return uint8(256 - int(ciphertext[1]))
}
