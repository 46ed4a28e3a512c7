package format

import (
	"encoding/binary"
	"errors"
	"testing"
)

func rawHeader(magic string) []byte {
	b := make([]byte, CompactHeaderSize)
	copy(b, magic)
	binary.LittleEndian.PutUint32(b[HeaderFileSizeOffset:], uint32(len(b)))
	binary.LittleEndian.PutUint32(b[HeaderHeaderSizeOffset:], HeaderSize)
	binary.LittleEndian.PutUint32(b[HeaderEndianTagOffset:], EndianConstant)
	binary.LittleEndian.PutUint32(b[HeaderMapOffOffset:], 0x70)
	binary.LittleEndian.PutUint32(b[HeaderTypeIDsSizeOffset:], 7)
	binary.LittleEndian.PutUint32(b[HeaderTypeIDsOffOffset:], 0x80)
	binary.LittleEndian.PutUint32(b[HeaderDataSizeOffset:], 0x18)
	binary.LittleEndian.PutUint32(b[HeaderDataOffOffset:], 0x70)
	return b
}

func TestParseHeaderSuccess(t *testing.T) {
	hdr, err := ParseHeader(rawHeader("dex\n035\x00"))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.Version != 35 || hdr.Compact {
		t.Fatalf("version mismatch: %+v", hdr)
	}
	if hdr.EndianTag != EndianConstant || hdr.MapOff != 0x70 {
		t.Fatalf("field mismatch: %+v", hdr)
	}
	if hdr.TypeIDs != (Section{Size: 7, Offset: 0x80}) {
		t.Fatalf("type_ids mismatch: %+v", hdr.TypeIDs)
	}
	if hdr.Data != (Section{Size: 0x18, Offset: 0x70}) {
		t.Fatalf("data mismatch: %+v", hdr.Data)
	}
	if hdr.SupportsDefaultMethods() {
		t.Fatalf("035 must not support default methods")
	}
	if hdr.ExpectedHeaderSize() != HeaderSize {
		t.Fatalf("expected standard header size")
	}
	if got := hdr.MagicString(); got != "dex 035" {
		t.Fatalf("MagicString = %q", got)
	}
}

func TestParseHeaderVersions(t *testing.T) {
	tests := []struct {
		magic         string
		version       int
		defaults      bool
		orderEnforced bool
	}{
		{"dex\n035\x00", 35, false, false},
		{"dex\n037\x00", 37, true, true},
		{"dex\n039\x00", 39, true, true},
	}
	for _, tt := range tests {
		hdr, err := ParseHeader(rawHeader(tt.magic))
		if err != nil {
			t.Fatalf("%q: %v", tt.magic, err)
		}
		if hdr.Version != tt.version {
			t.Fatalf("%q: version %d, want %d", tt.magic, hdr.Version, tt.version)
		}
		if hdr.SupportsDefaultMethods() != tt.defaults {
			t.Fatalf("%q: SupportsDefaultMethods = %v", tt.magic, !tt.defaults)
		}
		if hdr.EnforcesClassDefinitionOrder() != tt.orderEnforced {
			t.Fatalf("%q: EnforcesClassDefinitionOrder = %v", tt.magic, !tt.orderEnforced)
		}
	}
}

func TestParseHeaderCompact(t *testing.T) {
	b := rawHeader("cdex001\x00")
	binary.LittleEndian.PutUint32(b[CompactFeatureFlagsOffset:], CompactFeatureDefaultMethods)
	hdr, err := ParseHeader(b)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if !hdr.Compact || hdr.ExpectedHeaderSize() != CompactHeaderSize {
		t.Fatalf("compact header not recognised: %+v", hdr)
	}
	if !hdr.SupportsDefaultMethods() {
		t.Fatalf("feature flag should enable default methods")
	}
	if _, err := ParseHeader(b[:HeaderSize+4]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short compact header: %v", err)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 10)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncation error, got %v", err)
	}
	if _, err := ParseHeader(rawHeader("BAD!035\x00")); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if _, err := ParseHeader(rawHeader("dex\n036\x00")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected unsupported version error, got %v", err)
	}
	if _, err := ParseHeader(rawHeader("dex\n035x")); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected NUL terminator error, got %v", err)
	}
}

func TestSealChecksum(t *testing.T) {
	b := rawHeader("dex\n035\x00")
	Seal(b)
	hdr, err := ParseHeader(b)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.Checksum != ComputeChecksum(b) {
		t.Fatalf("checksum %08x, computed %08x", hdr.Checksum, ComputeChecksum(b))
	}
	sig := ComputeSignature(b)
	if hdr.Signature != sig {
		t.Fatalf("signature mismatch")
	}
	b[len(b)-1] ^= 0xff
	if hdr.Checksum == ComputeChecksum(b) {
		t.Fatalf("flipping a byte must change the checksum")
	}
}
