package dexbuild

import (
	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

// Array encodes an encoded_array from already encoded values.
func Array(values ...[]byte) []byte {
	out := buf.AppendULEB128(nil, uint32(len(values)))
	for _, v := range values {
		out = append(out, v...)
	}
	return out
}

// EncodeAnnotation encodes an encoded_annotation.
func EncodeAnnotation(typeIdx uint32, elems ...Element) []byte {
	out := buf.AppendULEB128(nil, typeIdx)
	out = buf.AppendULEB128(out, uint32(len(elems)))
	for _, e := range elems {
		out = buf.AppendULEB128(out, e.Name)
		out = append(out, e.Value...)
	}
	return out
}

// Handler is one encoded_catch_handler. Pairs holds (type_idx, addr).
type Handler struct {
	Pairs        [][2]uint32
	CatchAll     bool
	CatchAllAddr uint32
}

// Handlers encodes an encoded_catch_handler_list. The offset of the n-th
// handler relative to the list start is what try_item.handler_off refers to.
func Handlers(handlers ...Handler) []byte {
	out := buf.AppendULEB128(nil, uint32(len(handlers)))
	for _, h := range handlers {
		size := int32(len(h.Pairs))
		if h.CatchAll {
			size = -size
		}
		out = buf.AppendSLEB128(out, size)
		for _, p := range h.Pairs {
			out = buf.AppendULEB128(out, p[0])
			out = buf.AppendULEB128(out, p[1])
		}
		if h.CatchAll {
			out = buf.AppendULEB128(out, h.CatchAllAddr)
		}
	}
	return out
}

// unsignedValue encodes v in as few little-endian bytes as possible.
func unsignedValue(t format.ValueType, v uint32) []byte {
	n := 1
	for x := v >> 8; x != 0; x >>= 8 {
		n++
	}
	out := []byte{byte(t) | byte(n-1)<<format.ValueArgShift}
	for i := 0; i < n; i++ {
		out = append(out, byte(v>>(8*i)))
	}
	return out
}

// signedValue encodes v in as few sign-extended little-endian bytes as
// possible.
func signedValue(t format.ValueType, v int64) []byte {
	n := 1
	for n < 8 {
		shift := uint(8*n - 1)
		if x := v >> shift; x == 0 || x == -1 {
			break
		}
		n++
	}
	out := []byte{byte(t) | byte(n-1)<<format.ValueArgShift}
	for i := 0; i < n; i++ {
		out = append(out, byte(v>>(8*i)))
	}
	return out
}

// Byte encodes a VALUE_BYTE.
func Byte(v int8) []byte { return []byte{byte(format.ValueByte), byte(v)} }

// Short encodes a VALUE_SHORT.
func Short(v int16) []byte { return signedValue(format.ValueShort, int64(v)) }

// Char encodes a VALUE_CHAR.
func Char(v uint16) []byte { return unsignedValue(format.ValueChar, uint32(v)) }

// Int encodes a VALUE_INT.
func Int(v int32) []byte { return signedValue(format.ValueInt, int64(v)) }

// Long encodes a VALUE_LONG.
func Long(v int64) []byte { return signedValue(format.ValueLong, v) }

// String encodes a VALUE_STRING.
func String(idx uint32) []byte { return unsignedValue(format.ValueString, idx) }

// Type encodes a VALUE_TYPE.
func Type(idx uint32) []byte { return unsignedValue(format.ValueTypeIdx, idx) }

// FieldValue encodes a VALUE_FIELD.
func FieldValue(idx uint32) []byte { return unsignedValue(format.ValueField, idx) }

// MethodValue encodes a VALUE_METHOD.
func MethodValue(idx uint32) []byte { return unsignedValue(format.ValueMethod, idx) }

// MethodType encodes a VALUE_METHOD_TYPE.
func MethodType(idx uint32) []byte { return unsignedValue(format.ValueMethodType, idx) }

// MethodHandleValue encodes a VALUE_METHOD_HANDLE.
func MethodHandleValue(idx uint32) []byte { return unsignedValue(format.ValueMethodHandle, idx) }

// Null encodes VALUE_NULL.
func Null() []byte { return []byte{byte(format.ValueNull)} }

// Boolean encodes VALUE_BOOLEAN.
func Boolean(v bool) []byte {
	if v {
		return []byte{byte(format.ValueBoolean) | 1<<format.ValueArgShift}
	}
	return []byte{byte(format.ValueBoolean)}
}

// ArrayValue encodes a nested VALUE_ARRAY.
func ArrayValue(values ...[]byte) []byte {
	return append([]byte{byte(format.ValueArray)}, Array(values...)...)
}

// AnnotationValue encodes a nested VALUE_ANNOTATION.
func AnnotationValue(typeIdx uint32, elems ...Element) []byte {
	return append([]byte{byte(format.ValueAnnotation)}, EncodeAnnotation(typeIdx, elems...)...)
}
