package mutf8

// memberValidLowASCII has one bit per ASCII character that may appear in a
// member name: '$', '-', '0'-'9', 'A'-'Z', '_' and 'a'-'z'.
var memberValidLowASCII = [4]uint32{
	0x00000000, // 00..1f
	0x03ff2010, // 20..3f
	0x87fffffe, // 40..5f
	0x07fffffe, // 60..7f
}

// validMemberPart consumes one character of a simple name starting at s[i]
// and reports whether it is allowed.
func validMemberPart(s []byte, i int) (bool, int) {
	c := s[i]
	if c <= 0x7f {
		return memberValidLowASCII[c>>5]&(1<<(c&0x1f)) != 0, i + 1
	}

	pair, next := Decode(s, i)
	if Trailing(pair) != 0 {
		// Supplementary characters are always valid.
		return true, next
	}
	lead := Leading(pair)
	switch lead >> 8 {
	case 0x00:
		// Above the Latin-1 no-break space.
		return lead > 0x00a0, next
	case 0xd8, 0xd9, 0xda, 0xdb:
		// A leading surrogate must be followed by a trailing one.
		if next >= len(s) {
			return false, next
		}
		pair2, after := Decode(s, next)
		t := Leading(pair2)
		return Trailing(pair2) == 0 && t >= 0xdc00 && t <= 0xdfff, after
	case 0xdc, 0xdd, 0xde, 0xdf:
		return false, next
	case 0x20, 0xff:
		switch lead & 0xfff8 {
		case 0x2000, 0x2008, 0x2028, 0xfff0, 0xfff8:
			return false, next
		}
		return true, next
	}
	return true, next
}

// IsValidMemberName reports whether s is a valid field or method name:
// a non-empty simple name, or "<" simple name ">" for constructors.
func IsValidMemberName(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	angle := false
	i := 0
	if s[0] == '<' {
		angle = true
		i++
	}
	for {
		if i >= len(s) {
			return !angle
		}
		if s[i] == '>' {
			return angle && i+1 == len(s)
		}
		ok, next := validMemberPart(s, i)
		if !ok {
			return false
		}
		i = next
	}
}

// IsValidDescriptor reports whether s is a valid type descriptor: a primitive
// letter, V, an L...; class name with '/' separators, or up to 255 '['
// prefixes on any of those except V.
func IsValidDescriptor(s []byte) bool {
	i := 0
	arrays := 0
	for i < len(s) && s[i] == '[' {
		arrays++
		i++
	}
	if arrays > 255 || i >= len(s) {
		return false
	}

	c := s[i]
	i++
	switch c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i == len(s)
	case 'V':
		return arrays == 0 && i == len(s)
	case 'L':
	default:
		return false
	}

	sepOrFirst := true
	for {
		if i >= len(s) {
			// Ran off the end without a ';'.
			return false
		}
		switch s[i] {
		case ';':
			return !sepOrFirst && i+1 == len(s)
		case '/':
			if sepOrFirst {
				return false
			}
			sepOrFirst = true
			i++
		case '.':
			return false
		default:
			ok, next := validMemberPart(s, i)
			if !ok {
				return false
			}
			sepOrFirst = false
			i = next
		}
	}
}
