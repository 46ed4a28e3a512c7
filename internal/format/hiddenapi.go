package format

// Hidden API flags are a 3-bit list value followed by domain bits.
const (
	HiddenapiSdk         = 0
	HiddenapiUnsupported = 1
	HiddenapiBlocked     = 2
	HiddenapiMaxTargetO  = 3
	HiddenapiMaxTargetP  = 4
	HiddenapiMaxTargetQ  = 5
	HiddenapiMaxTargetR  = 6

	HiddenapiValueMask = 0x7

	HiddenapiDomainCorePlatform = 1 << 3
	HiddenapiDomainTestAPI      = 1 << 4

	hiddenapiKnownMask = HiddenapiValueMask | HiddenapiDomainCorePlatform | HiddenapiDomainTestAPI
)

// IsValidHiddenapiFlags reports whether flags decodes to a known list value
// with no unknown domain bits.
func IsValidHiddenapiFlags(flags uint32) bool {
	return flags&^hiddenapiKnownMask == 0 && flags&HiddenapiValueMask <= HiddenapiMaxTargetR
}
