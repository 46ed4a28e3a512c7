// Package format houses the low-level layout of the DEX container format:
// header fields, fixed record sizes, map-item kinds, access flags and the
// tag spaces used by encoded values and debug info. Record decoders here
// assume the caller has already proven the bytes they touch are in range.
package format

var (
	// DexMagic is the four-byte prefix of a standard dex file. It is followed
	// by a three-digit version and a NUL.
	//   0x00  'd' 'e' 'x' '\n'
	DexMagic = []byte{'d', 'e', 'x', '\n'}

	// CompactDexMagic prefixes compact dex files produced by dexlayout.
	CompactDexMagic = []byte{'c', 'd', 'e', 'x'}

	// DexVersions lists the standard dex versions this package understands.
	DexVersions = []string{"035", "037", "038", "039", "040", "041"}

	// CompactDexVersions lists the compact dex versions this package understands.
	CompactDexVersions = []string{"001"}
)

const (
	// HeaderSize is the size of a standard dex header.
	HeaderSize = 0x70

	// CompactHeaderSize is the size of a compact dex header: the standard
	// header followed by feature_flags, debug_info_offsets_pos,
	// debug_info_offsets_table_offset, debug_info_base, owned_data_begin and
	// owned_data_end.
	CompactHeaderSize = HeaderSize + 6*4

	// MagicSize covers the magic and the version bytes.
	MagicSize = 8

	// SignatureSize is the length of the SHA-1 signature field.
	SignatureSize = 20

	// EndianConstant is the only accepted endian_tag value.
	EndianConstant = 0x12345678

	// ReverseEndianConstant is the tag a byte-swapped file would carry.
	ReverseEndianConstant = 0x78563412

	// NoIndex marks an absent 32-bit index (e.g. class_def.source_file_idx).
	NoIndex = 0xffffffff

	// NoIndex16 marks an absent 16-bit index.
	NoIndex16 = 0xffff

	// TypeIDLimit is the largest allowed type_ids or proto_ids count.
	TypeIDLimit = 0xffff
)

// Header field offsets (little-endian).
const (
	HeaderMagicOffset         = 0x00
	HeaderChecksumOffset      = 0x08
	HeaderSignatureOffset     = 0x0C
	HeaderFileSizeOffset      = 0x20
	HeaderHeaderSizeOffset    = 0x24
	HeaderEndianTagOffset     = 0x28
	HeaderLinkSizeOffset      = 0x2C
	HeaderLinkOffOffset       = 0x30
	HeaderMapOffOffset        = 0x34
	HeaderStringIDsSizeOffset = 0x38
	HeaderStringIDsOffOffset  = 0x3C
	HeaderTypeIDsSizeOffset   = 0x40
	HeaderTypeIDsOffOffset    = 0x44
	HeaderProtoIDsSizeOffset  = 0x48
	HeaderProtoIDsOffOffset   = 0x4C
	HeaderFieldIDsSizeOffset  = 0x50
	HeaderFieldIDsOffOffset   = 0x54
	HeaderMethodIDsSizeOffset = 0x58
	HeaderMethodIDsOffOffset  = 0x5C
	HeaderClassDefsSizeOffset = 0x60
	HeaderClassDefsOffOffset  = 0x64
	HeaderDataSizeOffset      = 0x68
	HeaderDataOffOffset       = 0x6C
	CompactFeatureFlagsOffset = 0x70

	// ChecksumStart is the first byte covered by the adler32 checksum.
	ChecksumStart = HeaderSignatureOffset
	// SignatureStart is the first byte covered by the SHA-1 signature.
	SignatureStart = HeaderSignatureOffset + SignatureSize
)

// Fixed record sizes in bytes.
const (
	StringIDSize       = 4
	TypeIDSize         = 4
	ProtoIDSize        = 12
	FieldIDSize        = 8
	MethodIDSize       = 8
	ClassDefSize       = 32
	CallSiteIDSize     = 4
	MethodHandleSize   = 8
	MapItemSize        = 12
	MapListHeaderSize  = 4
	TypeItemSize       = 2
	TypeListHeaderSize = 4

	AnnotationSetRefItemSize     = 4
	AnnotationOffItemSize        = 4
	FieldAnnotationsItemSize     = 8
	MethodAnnotationsItemSize    = 8
	ParameterAnnotationsItemSize = 8
	AnnotationsDirectorySize     = 16

	CodeItemHeaderSize = 16
	TryItemSize        = 8
)

// Field offsets within fixed records.
const (
	ProtoShortyOffset     = 0
	ProtoReturnTypeOffset = 4
	ProtoReturnPadOffset  = 6
	ProtoParametersOffset = 8

	FieldClassOffset = 0
	FieldTypeOffset  = 2
	FieldNameOffset  = 4

	MethodClassOffset = 0
	MethodProtoOffset = 2
	MethodNameOffset  = 4

	ClassDefClassOffset        = 0x00
	ClassDefPad1Offset         = 0x02
	ClassDefAccessFlagsOffset  = 0x04
	ClassDefSuperclassOffset   = 0x08
	ClassDefPad2Offset         = 0x0A
	ClassDefInterfacesOffset   = 0x0C
	ClassDefSourceFileOffset   = 0x10
	ClassDefAnnotationsOffset  = 0x14
	ClassDefClassDataOffset    = 0x18
	ClassDefStaticValuesOffset = 0x1C

	CodeRegistersOffset = 0
	CodeInsOffset       = 2
	CodeOutsOffset      = 4
	CodeTriesOffset     = 6
	CodeDebugInfoOffset = 8
	CodeInsnsSizeOffset = 12
)

// Version thresholds.
const (
	// DefaultMethodsVersion is the first dex version that allows default and
	// static interface methods.
	DefaultMethodsVersion = 37

	// ClassDefinitionOrderEnforcedVersion is the first version in which a
	// class may not be defined before its superclass or interfaces.
	ClassDefinitionOrderEnforcedVersion = 37
)

// CompactFeatureDefaultMethods is the compact dex feature bit for default methods.
const CompactFeatureDefaultMethods = 0x1
