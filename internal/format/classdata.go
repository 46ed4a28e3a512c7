package format

import (
	"fmt"

	"github.com/joshuapare/dexkit/internal/buf"
)

// EncodedField is one decoded class_data_item field entry with its absolute
// field_id index.
type EncodedField struct {
	Idx         uint32
	AccessFlags uint32
}

// EncodedMethod is one decoded class_data_item method entry with its absolute
// method_id index.
type EncodedMethod struct {
	Idx         uint32
	AccessFlags uint32
	CodeOff     uint32
}

// ClassData is a decoded class_data_item.
type ClassData struct {
	StaticFields   []EncodedField
	InstanceFields []EncodedField
	DirectMethods  []EncodedMethod
	VirtualMethods []EncodedMethod

	// End is the offset of the first byte after the item.
	End int
}

// Fields returns static then instance fields.
func (c *ClassData) Fields() []EncodedField {
	out := make([]EncodedField, 0, len(c.StaticFields)+len(c.InstanceFields))
	out = append(out, c.StaticFields...)
	return append(out, c.InstanceFields...)
}

// Methods returns direct then virtual methods.
func (c *ClassData) Methods() []EncodedMethod {
	out := make([]EncodedMethod, 0, len(c.DirectMethods)+len(c.VirtualMethods))
	out = append(out, c.DirectMethods...)
	return append(out, c.VirtualMethods...)
}

// NumMembers is the total number of fields and methods.
func (c *ClassData) NumMembers() int {
	return len(c.StaticFields) + len(c.InstanceFields) + len(c.DirectMethods) + len(c.VirtualMethods)
}

// DecodeClassData decodes the class_data_item at off, never reading at or
// beyond end. Index deltas accumulate per list with 32-bit wraparound, so a
// caller that needs range guarantees must still check each index.
func DecodeClassData(b []byte, off, end int) (ClassData, error) {
	var cd ClassData
	var counts [4]uint32
	pos := off
	for i := range counts {
		v, next, ok := buf.ULEB128(b, pos, end)
		if !ok {
			return ClassData{}, fmt.Errorf("class_data_item header at 0x%x: %w", off, ErrTruncated)
		}
		counts[i] = v
		pos = next
	}

	var err error
	if cd.StaticFields, pos, err = decodeFields(b, pos, end, counts[0]); err != nil {
		return ClassData{}, err
	}
	if cd.InstanceFields, pos, err = decodeFields(b, pos, end, counts[1]); err != nil {
		return ClassData{}, err
	}
	if cd.DirectMethods, pos, err = decodeMethods(b, pos, end, counts[2]); err != nil {
		return ClassData{}, err
	}
	if cd.VirtualMethods, pos, err = decodeMethods(b, pos, end, counts[3]); err != nil {
		return ClassData{}, err
	}
	cd.End = pos
	return cd, nil
}

// capHint bounds a preallocation by the bytes that could possibly back it.
func capHint(count uint32, pos, end, minEntry int) int {
	avail := (end - pos) / minEntry
	if avail < 0 {
		return 0
	}
	if uint64(count) < uint64(avail) {
		return int(count)
	}
	return avail
}

func decodeFields(b []byte, pos, end int, count uint32) ([]EncodedField, int, error) {
	out := make([]EncodedField, 0, capHint(count, pos, end, 2))
	var idx uint32
	for i := uint32(0); i < count; i++ {
		diff, next, ok := buf.ULEB128(b, pos, end)
		if !ok {
			return nil, pos, fmt.Errorf("encoded_field at 0x%x: %w", pos, ErrTruncated)
		}
		flags, next, ok := buf.ULEB128(b, next, end)
		if !ok {
			return nil, pos, fmt.Errorf("encoded_field at 0x%x: %w", pos, ErrTruncated)
		}
		idx += diff
		out = append(out, EncodedField{Idx: idx, AccessFlags: flags})
		pos = next
	}
	return out, pos, nil
}

func decodeMethods(b []byte, pos, end int, count uint32) ([]EncodedMethod, int, error) {
	out := make([]EncodedMethod, 0, capHint(count, pos, end, 3))
	var idx uint32
	for i := uint32(0); i < count; i++ {
		var vals [3]uint32
		next := pos
		for j := range vals {
			v, n, ok := buf.ULEB128(b, next, end)
			if !ok {
				return nil, pos, fmt.Errorf("encoded_method at 0x%x: %w", pos, ErrTruncated)
			}
			vals[j] = v
			next = n
		}
		idx += vals[0]
		out = append(out, EncodedMethod{Idx: idx, AccessFlags: vals[1], CodeOff: vals[2]})
		pos = next
	}
	return out, pos, nil
}
