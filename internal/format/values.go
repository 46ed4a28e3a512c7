package format

// ValueType is the low five bits of an encoded_value header byte.
type ValueType uint8

const (
	ValueByte         ValueType = 0x00
	ValueShort        ValueType = 0x02
	ValueChar         ValueType = 0x03
	ValueInt          ValueType = 0x04
	ValueLong         ValueType = 0x06
	ValueFloat        ValueType = 0x10
	ValueDouble       ValueType = 0x11
	ValueMethodType   ValueType = 0x15
	ValueMethodHandle ValueType = 0x16
	ValueString       ValueType = 0x17
	ValueTypeIdx      ValueType = 0x18
	ValueField        ValueType = 0x19
	ValueMethod       ValueType = 0x1a
	ValueEnum         ValueType = 0x1b
	ValueArray        ValueType = 0x1c
	ValueAnnotation   ValueType = 0x1d
	ValueNull         ValueType = 0x1e
	ValueBoolean      ValueType = 0x1f
)

const (
	// ValueTypeMask selects the type from an encoded_value header byte.
	ValueTypeMask = 0x1f
	// ValueArgShift moves value_arg into the low bits.
	ValueArgShift = 5
)

// SplitValueHeader splits an encoded_value header byte into type and arg.
func SplitValueHeader(b byte) (ValueType, uint32) {
	return ValueType(b & ValueTypeMask), uint32(b >> ValueArgShift)
}

// Debug info opcodes.
const (
	DbgEndSequence        = 0x00
	DbgAdvancePC          = 0x01
	DbgAdvanceLine        = 0x02
	DbgStartLocal         = 0x03
	DbgStartLocalExtended = 0x04
	DbgEndLocal           = 0x05
	DbgRestartLocal       = 0x06
	DbgSetPrologueEnd     = 0x07
	DbgSetEpilogueBegin   = 0x08
	DbgSetFile            = 0x09
	DbgFirstSpecial       = 0x0a
)

// Annotation visibility values.
const (
	VisibilityBuild   = 0x00
	VisibilityRuntime = 0x01
	VisibilitySystem  = 0x02
)

// Method handle kinds. Kinds up to MethodHandleInstanceGet reference a
// field_id; the rest reference a method_id.
const (
	MethodHandleStaticPut         = 0x00
	MethodHandleStaticGet         = 0x01
	MethodHandleInstancePut       = 0x02
	MethodHandleInstanceGet       = 0x03
	MethodHandleInvokeStatic      = 0x04
	MethodHandleInvokeInstance    = 0x05
	MethodHandleInvokeConstructor = 0x06
	MethodHandleInvokeDirect      = 0x07
	MethodHandleInvokeInterface   = 0x08
	MethodHandleLast              = MethodHandleInvokeInterface
)

// MaxRegisters bounds register numbers in debug info.
const MaxRegisters = 65536

// MaxHandlers bounds handlers_size and handler entry counts in code items.
const MaxHandlers = 65536
