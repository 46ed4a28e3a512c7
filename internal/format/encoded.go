package format

import (
	"fmt"

	"github.com/joshuapare/dexkit/internal/buf"
)

// MaxEncodedDepth bounds nesting of encoded arrays and annotations.
const MaxEncodedDepth = 512

// EncodedValue is one top-level value of an encoded_array. Raw holds the
// zero-extended little-endian payload for scalar and index kinds and the
// value_arg for booleans; nested arrays and annotations are skipped.
type EncodedValue struct {
	Type ValueType
	Arg  uint32
	Raw  uint64
}

// EncodedArrayIterator walks the top-level values of an encoded_array.
type EncodedArrayIterator struct {
	b         []byte
	pos       int
	remaining uint32
}

// NewEncodedArrayIterator positions an iterator at the encoded_array at off.
func NewEncodedArrayIterator(b []byte, off int) (*EncodedArrayIterator, error) {
	n, next, ok := buf.ULEB128(b, off, len(b))
	if !ok {
		return nil, fmt.Errorf("encoded_array at 0x%x: %w", off, ErrTruncated)
	}
	return &EncodedArrayIterator{b: b, pos: next, remaining: n}, nil
}

// Len is the number of values not yet returned.
func (it *EncodedArrayIterator) Len() uint32 { return it.remaining }

// HasNext reports whether another value is available.
func (it *EncodedArrayIterator) HasNext() bool { return it.remaining > 0 }

// Next decodes the next value.
func (it *EncodedArrayIterator) Next() (EncodedValue, error) {
	if it.remaining == 0 {
		return EncodedValue{}, fmt.Errorf("encoded_array: %w: no more values", ErrCorrupt)
	}
	v, next, err := readValue(it.b, it.pos, 0)
	if err != nil {
		return EncodedValue{}, err
	}
	it.pos = next
	it.remaining--
	return v, nil
}

func readValue(b []byte, pos, depth int) (EncodedValue, int, error) {
	if depth > MaxEncodedDepth {
		return EncodedValue{}, pos, fmt.Errorf("encoded_value at 0x%x: %w: nesting too deep", pos, ErrCorrupt)
	}
	if pos < 0 || pos >= len(b) {
		return EncodedValue{}, pos, fmt.Errorf("encoded_value at 0x%x: %w", pos, ErrTruncated)
	}
	typ, arg := SplitValueHeader(b[pos])
	pos++
	v := EncodedValue{Type: typ, Arg: arg}

	switch typ {
	case ValueByte, ValueShort, ValueChar, ValueInt, ValueLong, ValueFloat, ValueDouble,
		ValueMethodType, ValueMethodHandle, ValueString, ValueTypeIdx, ValueField,
		ValueMethod, ValueEnum:
		width := int(arg) + 1
		payload, ok := buf.Slice(b, pos, width)
		if !ok {
			return EncodedValue{}, pos, fmt.Errorf("encoded_value at 0x%x: %w", pos-1, ErrTruncated)
		}
		for i, c := range payload {
			v.Raw |= uint64(c) << (8 * i)
		}
		return v, pos + width, nil
	case ValueNull:
		return v, pos, nil
	case ValueBoolean:
		v.Raw = uint64(arg)
		return v, pos, nil
	case ValueArray:
		next, err := skipArray(b, pos, depth+1)
		return v, next, err
	case ValueAnnotation:
		next, err := skipAnnotation(b, pos, depth+1)
		return v, next, err
	}
	return EncodedValue{}, pos, fmt.Errorf("encoded_value at 0x%x: %w: value_type %x", pos-1, ErrCorrupt, uint8(typ))
}

func skipArray(b []byte, pos, depth int) (int, error) {
	n, pos, ok := buf.ULEB128(b, pos, len(b))
	if !ok {
		return pos, fmt.Errorf("encoded_array at 0x%x: %w", pos, ErrTruncated)
	}
	for i := uint32(0); i < n; i++ {
		_, next, err := readValue(b, pos, depth)
		if err != nil {
			return next, err
		}
		pos = next
	}
	return pos, nil
}

func skipAnnotation(b []byte, pos, depth int) (int, error) {
	_, pos, ok := buf.ULEB128(b, pos, len(b))
	if !ok {
		return pos, fmt.Errorf("encoded_annotation at 0x%x: %w", pos, ErrTruncated)
	}
	n, pos, ok := buf.ULEB128(b, pos, len(b))
	if !ok {
		return pos, fmt.Errorf("encoded_annotation at 0x%x: %w", pos, ErrTruncated)
	}
	for i := uint32(0); i < n; i++ {
		_, next, ok := buf.ULEB128(b, pos, len(b))
		if !ok {
			return pos, fmt.Errorf("annotation_element at 0x%x: %w", pos, ErrTruncated)
		}
		_, next, err := readValue(b, next, depth)
		if err != nil {
			return next, err
		}
		pos = next
	}
	return pos, nil
}
