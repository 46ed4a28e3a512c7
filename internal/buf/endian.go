// Package buf contains bounds and endian helpers shared by the DEX decoders.
package buf

import "encoding/binary"

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U16At reads a little-endian uint16 at b[off]. Returns 0 when out of range.
func U16At(b []byte, off int) uint16 {
	if off < 0 || off > len(b) {
		return 0
	}
	return U16LE(b[off:])
}

// U32At reads a little-endian uint32 at b[off]. Returns 0 when out of range.
func U32At(b []byte, off int) uint32 {
	if off < 0 || off > len(b) {
		return 0
	}
	return U32LE(b[off:])
}
