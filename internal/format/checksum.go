package format

import (
	"crypto/sha1"
	"encoding/binary"
	"hash/adler32"
)

// ComputeChecksum returns the adler32 of everything after the checksum field.
func ComputeChecksum(b []byte) uint32 {
	if len(b) < ChecksumStart {
		return adler32.Checksum(nil)
	}
	return adler32.Checksum(b[ChecksumStart:])
}

// ComputeSignature returns the SHA-1 of everything after the signature field.
func ComputeSignature(b []byte) [SignatureSize]byte {
	if len(b) < SignatureStart {
		return sha1.Sum(nil)
	}
	return sha1.Sum(b[SignatureStart:])
}

// Seal rewrites the signature and checksum of a complete dex image in place.
// The signature is written first because the checksum covers it.
func Seal(b []byte) {
	if len(b) < HeaderSize {
		return
	}
	sig := ComputeSignature(b)
	copy(b[HeaderSignatureOffset:], sig[:])
	binary.LittleEndian.PutUint32(b[HeaderChecksumOffset:], ComputeChecksum(b))
}
