package format

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/joshuapare/dexkit/internal/buf"
)

// Section is an (offset, size) pair from the header. Size counts records for
// the id tables and bytes for link and data.
type Section struct {
	Size   uint32
	Offset uint32
}

// Header captures the fixed fields at the start of a dex file.
type Header struct {
	Magic      [MagicSize]byte
	Checksum   uint32
	Signature  [SignatureSize]byte
	FileSize   uint32
	HeaderSize uint32
	EndianTag  uint32
	Link       Section
	MapOff     uint32
	StringIDs  Section
	TypeIDs    Section
	ProtoIDs   Section
	FieldIDs   Section
	MethodIDs  Section
	ClassDefs  Section
	Data       Section

	// Compact is set for "cdex" files.
	Compact bool
	// Version is the numeric magic version (35, 37, ... or 1 for compact).
	Version int
	// FeatureFlags is only present in compact headers.
	FeatureFlags uint32
}

// ParseHeader decodes the header at the start of b. It validates the magic
// and version only; everything else is left to the verifier.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: %w (have %d bytes, need %d)", ErrTruncated, len(b), HeaderSize)
	}

	var h Header
	copy(h.Magic[:], b[HeaderMagicOffset:HeaderMagicOffset+MagicSize])
	version, compact, err := parseMagic(h.Magic[:])
	if err != nil {
		return Header{}, err
	}
	h.Version = version
	h.Compact = compact

	h.Checksum = buf.U32At(b, HeaderChecksumOffset)
	copy(h.Signature[:], b[HeaderSignatureOffset:HeaderSignatureOffset+SignatureSize])
	h.FileSize = buf.U32At(b, HeaderFileSizeOffset)
	h.HeaderSize = buf.U32At(b, HeaderHeaderSizeOffset)
	h.EndianTag = buf.U32At(b, HeaderEndianTagOffset)
	h.Link = readSection(b, HeaderLinkSizeOffset)
	h.MapOff = buf.U32At(b, HeaderMapOffOffset)
	h.StringIDs = readSection(b, HeaderStringIDsSizeOffset)
	h.TypeIDs = readSection(b, HeaderTypeIDsSizeOffset)
	h.ProtoIDs = readSection(b, HeaderProtoIDsSizeOffset)
	h.FieldIDs = readSection(b, HeaderFieldIDsSizeOffset)
	h.MethodIDs = readSection(b, HeaderMethodIDsSizeOffset)
	h.ClassDefs = readSection(b, HeaderClassDefsSizeOffset)
	h.Data = readSection(b, HeaderDataSizeOffset)

	if compact {
		if len(b) < CompactHeaderSize {
			return Header{}, fmt.Errorf("compact header: %w (have %d bytes, need %d)",
				ErrTruncated, len(b), CompactHeaderSize)
		}
		h.FeatureFlags = buf.U32At(b, CompactFeatureFlagsOffset)
	}
	return h, nil
}

func readSection(b []byte, off int) Section {
	return Section{Size: buf.U32At(b, off), Offset: buf.U32At(b, off+4)}
}

func parseMagic(magic []byte) (version int, compact bool, err error) {
	var versions []string
	switch {
	case bytes.Equal(magic[:4], DexMagic):
		versions = DexVersions
	case bytes.Equal(magic[:4], CompactDexMagic):
		versions = CompactDexVersions
		compact = true
	default:
		return 0, false, fmt.Errorf("%w: magic %q", ErrSignatureMismatch, magic[:4])
	}
	if magic[7] != 0 {
		return 0, false, fmt.Errorf("%w: magic %q is not NUL terminated", ErrSignatureMismatch, magic)
	}
	v := string(magic[4:7])
	if !slices.Contains(versions, v) {
		return 0, false, fmt.Errorf("%w: dex version %q", ErrUnsupported, v)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: dex version %q", ErrSignatureMismatch, v)
	}
	return n, compact, nil
}

// ExpectedHeaderSize is the header_size value this file's variant must carry.
func (h Header) ExpectedHeaderSize() uint32 {
	if h.Compact {
		return CompactHeaderSize
	}
	return HeaderSize
}

// SupportsDefaultMethods reports whether the file format allows default and
// static interface methods. Several access-flag rules are only enforced when
// this is true; older files get a warning instead.
func (h Header) SupportsDefaultMethods() bool {
	if h.Compact {
		return h.FeatureFlags&CompactFeatureDefaultMethods != 0
	}
	return h.Version >= DefaultMethodsVersion
}

// EnforcesClassDefinitionOrder reports whether a class must be defined after
// its superclass and interfaces.
func (h Header) EnforcesClassDefinitionOrder() bool {
	return !h.Compact && h.Version >= ClassDefinitionOrderEnforcedVersion
}

// MagicString returns the printable part of the magic ("dex\n035" -> "dex 035").
func (h Header) MagicString() string {
	return fmt.Sprintf("%s %s", bytes.TrimRight(h.Magic[:4], "\n"), h.Magic[4:7])
}
