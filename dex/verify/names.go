package verify

import (
	"bytes"
	"sort"

	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
	"github.com/joshuapare/dexkit/internal/mutf8"
)

// stringData returns the modified UTF-8 bytes of string idx without the
// length prefix or NUL. Out-of-range reads yield an empty string.
func (v *Verifier) stringData(idx uint32) []byte {
	if idx >= v.hdr.StringIDs.Size {
		return nil
	}
	off := format.ReadStringDataOff(v.data, int(v.hdr.StringIDs.Offset)+int(idx)*format.StringIDSize)
	return v.stringAt(off)
}

func (v *Verifier) stringAt(off uint32) []byte {
	_, next, ok := buf.ULEB128(v.data, int(off), len(v.data))
	if !ok {
		return nil
	}
	return mutf8.CString(v.data[next:])
}

// typeDescriptor returns the descriptor string of type idx.
func (v *Verifier) typeDescriptor(idx uint32) []byte {
	if idx >= v.hdr.TypeIDs.Size {
		return nil
	}
	return v.stringData(format.ReadTypeDescriptorIdx(v.data, int(v.hdr.TypeIDs.Offset)+int(idx)*format.TypeIDSize))
}

func (v *Verifier) fieldID(idx uint32) format.FieldID {
	return format.ReadFieldID(v.data, int(v.hdr.FieldIDs.Offset)+int(idx)*format.FieldIDSize)
}

func (v *Verifier) methodID(idx uint32) format.MethodID {
	return format.ReadMethodID(v.data, int(v.hdr.MethodIDs.Offset)+int(idx)*format.MethodIDSize)
}

func (v *Verifier) protoID(idx uint32) format.ProtoID {
	return format.ReadProtoID(v.data, int(v.hdr.ProtoIDs.Offset)+int(idx)*format.ProtoIDSize)
}

func (v *Verifier) classDef(idx uint32) format.ClassDef {
	return format.ReadClassDef(v.data, int(v.hdr.ClassDefs.Offset)+int(idx)*format.ClassDefSize)
}

// typeList returns the entries of the type_list at off, or nil for off 0.
func (v *Verifier) typeList(off uint32) []uint16 {
	if off == 0 {
		return nil
	}
	return format.ReadTypeList(v.data, int(off))
}

// fieldDescription renders a field as "Lpkg/Class;.name" for messages.
func (v *Verifier) fieldDescription(idx uint32) string {
	f := v.fieldID(idx)
	return mutf8.Printable(v.typeDescriptor(uint32(f.ClassIdx))) + "." + mutf8.Printable(v.stringData(f.NameIdx))
}

// methodDescription renders a method as "Lpkg/Class;.name" for messages.
func (v *Verifier) methodDescription(idx uint32) string {
	m := v.methodID(idx)
	return mutf8.Printable(v.typeDescriptor(uint32(m.ClassIdx))) + "." + mutf8.Printable(v.stringData(m.NameIdx))
}

// Type descriptor predicates applied after the syntax check.
func anyDescriptor(byte) bool { return true }
func isClass(c byte) bool     { return c == 'L' }
func isNotVoid(c byte) bool   { return c != 'V' }
func isReference(c byte) bool { return c == 'L' || c == '[' }
func isPrimitive(c byte) bool { return bytes.IndexByte([]byte("ZBSCIJFD"), c) >= 0 }

func firstChar(desc []byte) byte {
	if len(desc) == 0 {
		return 0
	}
	return desc[0]
}

// verifyTypeDescriptor checks that type idx has a well-formed descriptor whose
// first character satisfies extra. Well-formedness is cached per type.
func (v *Verifier) verifyTypeDescriptor(idx uint32, msg string, extra func(byte) bool) error {
	c := v.typeDescriptors[idx]
	if c == 0 {
		desc := v.typeDescriptor(idx)
		if !mutf8.IsValidDescriptor(desc) {
			return v.failf(CategoryEncoding, "%s: '%s'", msg, mutf8.Printable(desc))
		}
		c = desc[0]
		v.typeDescriptors[idx] = c
	}
	if !extra(c) {
		return v.failf(CategoryReference, "%s: '%s'", msg, mutf8.Printable(v.typeDescriptor(idx)))
	}
	return nil
}

// findStringRangesForMethodNames locates the string indices that begin with
// '<' and the exact indices of "<init>" and "<clinit>", relying on string_ids
// being sorted. A file whose strings are not sorted fails the cross-reference
// pass later; until then the ranges may be wrong but are never out of bounds.
func (v *Verifier) findStringRangesForMethodNames() {
	n := int(v.hdr.StringIDs.Size)
	raw := func(i int) []byte {
		off := format.ReadStringDataOff(v.data, int(v.hdr.StringIDs.Offset)+i*format.StringIDSize)
		return v.stringAt(off)
	}
	lowerBound := func(lo, hi int, target string) int {
		return lo + sort.Search(hi-lo, func(k int) bool {
			return mutf8.Compare(raw(lo+k), []byte(target)) >= 0
		})
	}

	end := lowerBound(0, n, "=")
	start := lowerBound(0, end, "<")
	if start == end {
		v.angleStart, v.angleEnd = notFound, notFound
		v.initIdx, v.clinitIdx = notFound, notFound
		return
	}
	v.angleStart, v.angleEnd = uint32(start), uint32(end)

	find := func(name string) uint32 {
		i := lowerBound(start, end, name)
		if i != end && bytes.Equal(raw(i), []byte(name)) {
			return uint32(i)
		}
		return notFound
	}
	v.clinitIdx = find("<clinit>")
	v.initIdx = find("<init>")
}
