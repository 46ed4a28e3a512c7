package format

import "errors"

var (
	// ErrSignatureMismatch indicates the buffer does not start with a dex magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrUnsupported indicates the version or feature is not supported.
	ErrUnsupported = errors.New("format: unsupported feature")
	// ErrCorrupt indicates a structure decoded to an impossible value.
	ErrCorrupt = errors.New("format: corrupt structure")
)
