package mutf8

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Printable converts a modified UTF-8 string to ordinary UTF-8 for display.
// Unpaired surrogates become U+FFFD. If decoding fails the raw bytes are
// returned unchanged.
func Printable(s []byte) string {
	units := UTF16(s)
	raw := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[2*i:], u)
	}
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return string(s)
	}
	return string(out)
}
