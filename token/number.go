package token

// EncodeNumber returns the minimal little-endian sign-magnitude encoding of n
// as used for script numbers. Zero encodes to an empty slice.
func EncodeNumber(n uint64) []byte {
	var out []byte
	for n > 0 {
		out = append(out, byte(n))
		n >>= 8
	}
	// Keep the value positive when the top byte has its sign bit set.
	if len(out) > 0 && out[len(out)-1]&0x80 != 0 {
		out = append(out, 0x00)
	}
	return out
}
