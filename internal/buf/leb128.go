package buf

// ULEB128 decodes an unsigned LEB128 value starting at b[off] without
// reading at or beyond end (clamped to len(b)). It returns the value, the
// offset just past the encoding, and ok = false if the encoding ran into end.
//
// At most five bytes are consumed; garbage in the high bits of the fifth byte
// is tolerated, as in the reference decoder.
func ULEB128(b []byte, off, end int) (uint32, int, bool) {
	if end > len(b) {
		end = len(b)
	}
	var result uint32
	for shift := uint(0); ; shift += 7 {
		if off < 0 || off >= end {
			return 0, off, false
		}
		c := b[off]
		off++
		if shift == 28 {
			result |= uint32(c) << 28
			return result, off, true
		}
		result |= uint32(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, off, true
		}
	}
}

// SLEB128 decodes a signed LEB128 value starting at b[off] with the same
// bounds contract as ULEB128.
func SLEB128(b []byte, off, end int) (int32, int, bool) {
	if end > len(b) {
		end = len(b)
	}
	var result uint32
	for shift := uint(0); ; shift += 7 {
		if off < 0 || off >= end {
			return 0, off, false
		}
		c := b[off]
		off++
		if shift == 28 {
			result |= uint32(c) << 28
			return int32(result), off, true
		}
		result |= uint32(c&0x7f) << shift
		if c&0x80 == 0 {
			ext := 32 - (shift + 7)
			return int32(result<<ext) >> ext, off, true
		}
	}
}

// AppendULEB128 appends the unsigned LEB128 encoding of v to dst.
func AppendULEB128(dst []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, c)
		}
		dst = append(dst, c|0x80)
	}
}

// AppendSLEB128 appends the signed LEB128 encoding of v to dst.
func AppendSLEB128(dst []byte, v int32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0)
		if done {
			return append(dst, c)
		}
		dst = append(dst, c|0x80)
	}
}
