// Package mutf8 implements the modified UTF-8 (CESU-8 style) helpers the
// dex verifier relies on: decoding to UTF-16 code units, ordering strings by
// code unit, and the descriptor and member-name predicates.
//
// Inputs are the bytes of a string_data_item without the trailing NUL. All
// functions are total: truncated sequences decode with zero continuation bits
// instead of reading past the slice.
package mutf8

// Decode reads one character starting at s[i] and returns it as a UTF-16
// pair: the leading unit in the low 16 bits and, for a four-byte sequence,
// the trailing surrogate in the high 16 bits. It also returns the index of
// the next character.
func Decode(s []byte, i int) (uint32, int) {
	at := func(k int) uint32 {
		if k < len(s) {
			return uint32(s[k])
		}
		return 0
	}
	one := at(i)
	if one&0x80 == 0 {
		return one, i + 1
	}
	two := at(i + 1)
	if one&0x20 == 0 {
		return (one&0x1f)<<6 | two&0x3f, i + 2
	}
	three := at(i + 2)
	if one&0x10 == 0 {
		return (one&0x0f)<<12 | (two&0x3f)<<6 | three&0x3f, i + 3
	}
	four := at(i + 3)
	cp := (one&0x0f)<<18 | (two&0x3f)<<12 | (three&0x3f)<<6 | four&0x3f
	lead := ((cp >> 10) + 0xd7c0) & 0xffff
	trail := (cp & 0x03ff) + 0xdc00
	return lead | trail<<16, i + 4
}

// Leading returns the first UTF-16 unit of a pair returned by Decode.
func Leading(pair uint32) uint16 { return uint16(pair & 0xffff) }

// Trailing returns the second UTF-16 unit of a pair, or 0 if there is none.
func Trailing(pair uint32) uint16 { return uint16(pair >> 16) }

// Compare orders two modified UTF-8 strings by their UTF-16 code unit values.
// This differs from a byte comparison for supplementary characters and for
// the two-byte encoding of U+0000.
func Compare(a, b []byte) int {
	i, j := 0, 0
	for {
		if i >= len(a) {
			if j >= len(b) {
				return 0
			}
			return -1
		}
		if j >= len(b) {
			return 1
		}
		var c1, c2 uint32
		c1, i = Decode(a, i)
		c2, j = Decode(b, j)
		if c1 == c2 {
			continue
		}
		if l1, l2 := Leading(c1), Leading(c2); l1 != l2 {
			return cmpUnit(l1, l2)
		}
		return cmpUnit(Trailing(c1), Trailing(c2))
	}
}

func cmpUnit(a, b uint16) int {
	if a < b {
		return -1
	}
	return 1
}

// UTF16 decodes s into UTF-16 code units.
func UTF16(s []byte) []uint16 {
	out := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		var pair uint32
		pair, i = Decode(s, i)
		out = append(out, Leading(pair))
		if t := Trailing(pair); t != 0 {
			out = append(out, t)
		}
	}
	return out
}

// CString returns the bytes of s up to, but not including, the first NUL.
func CString(s []byte) []byte {
	for i, c := range s {
		if c == 0 {
			return s[:i]
		}
	}
	return s
}
