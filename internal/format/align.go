package format

// Alignment utilities. Fixed tables and most data items are 4-byte aligned;
// string data, class data, debug info, annotations and encoded arrays are not.

// Align4 returns n aligned up to the next 4-byte boundary.
//
//	Align4(0) = 0
//	Align4(1) = 4
//	Align4(4) = 4
func Align4(n int) int {
	return (n + 3) &^ 3
}

// AlignUp returns n aligned up to the next multiple of align, which must be a
// power of two. An alignment of 0 or 1 leaves n unchanged.
func AlignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// IsAligned reports whether n is a multiple of align (a power of two).
func IsAligned(n, align uint32) bool {
	if align <= 1 {
		return true
	}
	return n&(align-1) == 0
}
