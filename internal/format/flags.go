package format

import "strings"

// Access flags as stored in class_def_item and class_data_item.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSynchronized = 0x0020
	AccVolatile     = 0x0040 // fields
	AccBridge       = 0x0040 // methods
	AccTransient    = 0x0080 // fields
	AccVarargs      = 0x0080 // methods
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000

	// AccConstructor and AccDeclaredSynchronized only appear on methods in
	// class_data_item.
	AccConstructor          = 0x00010000
	AccDeclaredSynchronized = 0x00020000

	// AccJavaFlagsMask covers the flags visible to the Java language.
	AccJavaFlagsMask = 0xffff
)

// Flag groups used by the access-flag rules.
const (
	// AccAllMethodFlags is every bit a method may carry in a dex file.
	AccAllMethodFlags = AccJavaFlagsMask | AccConstructor | AccDeclaredSynchronized

	// AccFieldFlags are the lower bits that mean something on a field.
	AccFieldFlags = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal |
		AccVolatile | AccTransient | AccSynthetic | AccEnum

	// AccMethodFlags are the lower bits that mean something on a method.
	AccMethodFlags = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal |
		AccSynthetic | AccSynchronized | AccBridge | AccVarargs | AccNative |
		AccAbstract | AccStrict

	// AccVisibilityFlags are mutually exclusive.
	AccVisibilityFlags = AccPublic | AccProtected | AccPrivate

	// AccInitAllowed are the flags an instance constructor with code may carry.
	AccInitAllowed = AccPrivate | AccProtected | AccPublic | AccStrict | AccVarargs | AccSynthetic

	// AccAbstractForbidden may not be combined with abstract.
	AccAbstractForbidden = AccPrivate | AccStatic | AccFinal | AccNative | AccStrict | AccSynchronized
)

// AtMostOneVisibility reports whether at most one of public, protected and
// private is set.
func AtMostOneVisibility(flags uint32) bool {
	v := flags & AccVisibilityFlags
	return v&(v-1) == 0
}

var prettyFlags = []struct {
	bit  uint32
	name string
}{
	{AccPublic, "public"},
	{AccProtected, "protected"},
	{AccPrivate, "private"},
	{AccFinal, "final"},
	{AccStatic, "static"},
	{AccAbstract, "abstract"},
	{AccInterface, "interface"},
	{AccTransient, "transient"},
	{AccVolatile, "volatile"},
	{AccSynchronized, "synchronized"},
}

// PrettyJavaAccessFlags renders the Java-visible flags as source keywords,
// each followed by a space ("public static final ").
func PrettyJavaAccessFlags(flags uint32) string {
	var sb strings.Builder
	for _, f := range prettyFlags {
		if flags&f.bit != 0 {
			sb.WriteString(f.name)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
