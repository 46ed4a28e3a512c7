package verify

import (
	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
	"github.com/joshuapare/dexkit/internal/mutf8"
)

// checkInterSection cross-checks items against each other: sorted id tables,
// descriptor and shorty agreement, definer consistency and offsets that point
// at items of the right type. It relies on checkIntraSection having proven
// every item individually well formed.
func (v *Verifier) checkInterSection() error {
	for i := uint32(0); i < v.hdr.StringIDs.Size; i++ {
		v.ptr = int(v.hdr.StringIDs.Offset) + int(i)*format.StringIDSize
		off := format.ReadStringDataOff(v.data, v.ptr)
		if err := v.checkOffsetToTypeMap(off, format.TypeStringDataItem); err != nil {
			return err
		}
	}

	for _, item := range v.mapItems {
		switch item.Type {
		case format.TypeHeaderItem, format.TypeMapList, format.TypeTypeList, format.TypeCodeItem,
			format.TypeStringDataItem, format.TypeDebugInfoItem, format.TypeAnnotationItem,
			format.TypeEncodedArrayItem, format.TypeMethodHandleItem, format.TypeHiddenapiClassData:
			continue
		}
		if err := v.checkInterSectionIterate(item); err != nil {
			return err
		}
	}
	return nil
}

func (v *Verifier) checkInterSectionIterate(item format.MapItem) error {
	alignment := 4
	if item.Type == format.TypeClassDataItem {
		alignment = 1
	}

	v.previousItem = -1
	offset := int(item.Offset)
	for i := uint32(0); i < item.Size; i++ {
		v.ptr = format.AlignUp(offset, alignment)
		current := v.ptr

		var err error
		switch item.Type {
		case format.TypeStringIDItem:
			err = v.checkInterStringIDItem()
		case format.TypeTypeIDItem:
			err = v.checkInterTypeIDItem(i)
		case format.TypeProtoIDItem:
			err = v.checkInterProtoIDItem()
		case format.TypeFieldIDItem:
			err = v.checkInterFieldIDItem()
		case format.TypeMethodIDItem:
			err = v.checkInterMethodIDItem()
		case format.TypeClassDefItem:
			err = v.checkInterClassDefItem(i)
		case format.TypeCallSiteIDItem:
			err = v.checkInterCallSiteIDItem()
		case format.TypeAnnotationSetRefList:
			err = v.checkInterAnnotationSetRefList()
		case format.TypeAnnotationSetItem:
			err = v.checkInterAnnotationSetItem()
		case format.TypeClassDataItem:
			if i > format.TypeIDLimit {
				return v.failf(CategoryBounds, "Too many class data items")
			}
			err = v.checkInterClassDataItem()
		case format.TypeAnnotationsDirectoryItem:
			err = v.checkInterAnnotationsDirectoryItem()
		}
		if err != nil {
			return err
		}

		v.previousItem = current
		offset = v.ptr
	}
	return nil
}

func (v *Verifier) checkInterStringIDItem() error {
	cur := v.stringAt(format.ReadStringDataOff(v.data, v.ptr))
	if v.previousItem >= 0 {
		prev := v.stringAt(format.ReadStringDataOff(v.data, v.previousItem))
		if mutf8.Compare(prev, cur) >= 0 {
			return v.failf(CategoryOrder, "Out-of-order string_ids: '%s' then '%s'",
				mutf8.Printable(prev), mutf8.Printable(cur))
		}
	}
	v.ptr += format.StringIDSize
	return nil
}

func (v *Verifier) checkInterTypeIDItem(idx uint32) error {
	if err := v.verifyTypeDescriptor(idx, "Invalid type descriptor", anyDescriptor); err != nil {
		return err
	}
	cur := format.ReadTypeDescriptorIdx(v.data, v.ptr)
	if v.previousItem >= 0 {
		prev := format.ReadTypeDescriptorIdx(v.data, v.previousItem)
		if prev >= cur {
			return v.failf(CategoryOrder, "Out-of-order type_ids: %x then %x", prev, cur)
		}
	}
	v.ptr += format.TypeIDSize
	return nil
}

func (v *Verifier) checkInterProtoIDItem() error {
	item := format.ReadProtoID(v.data, v.ptr)
	shorty := v.stringData(item.ShortyIdx)

	if item.ParametersOff != 0 {
		if err := v.checkOffsetToTypeMap(item.ParametersOff, format.TypeTypeList); err != nil {
			return err
		}
	}

	if item.ReturnPad != 0 {
		return v.failf(CategoryReference, "proto with return type idx outside uint16_t range '%x:%x'",
			item.ReturnPad, item.ReturnTypeIdx)
	}
	returnType := v.typeDescriptor(uint32(item.ReturnTypeIdx))
	if err := v.checkShortyDescriptorMatch(firstChar(shorty), returnType, true); err != nil {
		return err
	}

	params := v.typeList(item.ParametersOff)
	s := 1
	k := 0
	for ; k < len(params) && s < len(shorty); k, s = k+1, s+1 {
		idx := uint32(params[k])
		if err := v.checkIndex(idx, v.hdr.TypeIDs.Size, "inter_proto_id_item shorty type_idx"); err != nil {
			return err
		}
		if err := v.checkShortyDescriptorMatch(shorty[s], v.typeDescriptor(idx), false); err != nil {
			return err
		}
	}
	if k < len(params) || s < len(shorty) {
		return v.failf(CategoryEncoding, "Mismatched length for parameters and shorty")
	}

	if v.previousItem >= 0 {
		prev := format.ReadProtoID(v.data, v.previousItem)
		switch {
		case prev.ReturnTypeIdx > item.ReturnTypeIdx:
			return v.failf(CategoryOrder, "Out-of-order proto_id return types")
		case prev.ReturnTypeIdx == item.ReturnTypeIdx:
			if !protoArgsOrdered(v.typeList(prev.ParametersOff), params) {
				return v.failf(CategoryOrder, "Out-of-order proto_id arguments")
			}
		}
	}

	v.ptr += format.ProtoIDSize
	return nil
}

// protoArgsOrdered reports whether prev's parameter list sorts strictly before
// cur's: lexicographic by type index, with a proper prefix sorting first.
func protoArgsOrdered(prev, cur []uint16) bool {
	for i := 0; i < len(prev) && i < len(cur); i++ {
		if prev[i] != cur[i] {
			return prev[i] < cur[i]
		}
	}
	return len(cur) > len(prev)
}

// checkShortyDescriptorMatch checks one shorty character against the full
// descriptor of the corresponding type.
func (v *Verifier) checkShortyDescriptorMatch(c byte, desc []byte, isReturn bool) error {
	switch c {
	case 'V':
		if !isReturn {
			return v.failf(CategoryEncoding, "Invalid use of void")
		}
		fallthrough
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		if len(desc) != 1 || desc[0] != c {
			return v.failf(CategoryReference, "Shorty vs. primitive type mismatch: '%c', '%s'", c, mutf8.Printable(desc))
		}
	case 'L':
		if !isReference(firstChar(desc)) {
			return v.failf(CategoryReference, "Shorty vs. type mismatch: '%c', '%s'", c, mutf8.Printable(desc))
		}
	default:
		return v.failf(CategoryEncoding, "Bad shorty character: '%c'", c)
	}
	return nil
}

func (v *Verifier) checkInterFieldIDItem() error {
	item := format.ReadFieldID(v.data, v.ptr)

	if err := v.verifyTypeDescriptor(uint32(item.ClassIdx), "Invalid descriptor for class_idx", isClass); err != nil {
		return err
	}
	if err := v.verifyTypeDescriptor(uint32(item.TypeIdx), "Invalid descriptor for type_idx", isNotVoid); err != nil {
		return err
	}
	if name := v.stringData(item.NameIdx); !mutf8.IsValidMemberName(name) {
		return v.failf(CategoryEncoding, "Invalid field name: '%s'", mutf8.Printable(name))
	}

	if v.previousItem >= 0 {
		prev := format.ReadFieldID(v.data, v.previousItem)
		if !tripleOrdered(
			[3]uint32{uint32(prev.ClassIdx), prev.NameIdx, uint32(prev.TypeIdx)},
			[3]uint32{uint32(item.ClassIdx), item.NameIdx, uint32(item.TypeIdx)},
		) {
			return v.failf(CategoryOrder, "Out-of-order field_ids")
		}
	}

	v.ptr += format.FieldIDSize
	return nil
}

func (v *Verifier) checkInterMethodIDItem() error {
	item := format.ReadMethodID(v.data, v.ptr)

	if err := v.verifyTypeDescriptor(uint32(item.ClassIdx), "Invalid descriptor for class_idx", isReference); err != nil {
		return err
	}
	if name := v.stringData(item.NameIdx); !mutf8.IsValidMemberName(name) {
		return v.failf(CategoryEncoding, "Invalid method name: '%s'", mutf8.Printable(name))
	}
	if err := v.checkIndex(uint32(item.ProtoIdx), v.hdr.ProtoIDs.Size, "inter_method_id_item proto_idx"); err != nil {
		return err
	}

	if v.previousItem >= 0 {
		prev := format.ReadMethodID(v.data, v.previousItem)
		if !tripleOrdered(
			[3]uint32{uint32(prev.ClassIdx), prev.NameIdx, uint32(prev.ProtoIdx)},
			[3]uint32{uint32(item.ClassIdx), item.NameIdx, uint32(item.ProtoIdx)},
		) {
			return v.failf(CategoryOrder, "Out-of-order method_ids")
		}
	}

	v.ptr += format.MethodIDSize
	return nil
}

// tripleOrdered reports whether prev sorts strictly before cur.
func tripleOrdered(prev, cur [3]uint32) bool {
	for i := range prev {
		if prev[i] != cur[i] {
			return prev[i] < cur[i]
		}
	}
	return false
}

func (v *Verifier) checkInterAnnotationSetRefList() error {
	count := buf.U32At(v.data, v.ptr)
	p := v.ptr + 4
	for i := uint32(0); i < count; i++ {
		if off := buf.U32At(v.data, p); off != 0 {
			if err := v.checkOffsetToTypeMap(off, format.TypeAnnotationSetItem); err != nil {
				return err
			}
		}
		p += format.AnnotationSetRefItemSize
	}
	v.ptr = p
	return nil
}

// checkInterAnnotationSetItem requires each entry to be an annotation_item
// and the entries to be sorted by annotation type.
func (v *Verifier) checkInterAnnotationSetItem() error {
	count := buf.U32At(v.data, v.ptr)
	p := v.ptr + 4
	var last uint32
	for i := uint32(0); i < count; i++ {
		off := buf.U32At(v.data, p)
		if off != 0 {
			if err := v.checkOffsetToTypeMap(off, format.TypeAnnotationItem); err != nil {
				return err
			}
		}
		// The type index follows the one-byte visibility.
		idx, _, ok := buf.ULEB128(v.data, int(off)+1, len(v.data))
		if !ok {
			return v.failf(CategoryEncoding, "Read out of bounds")
		}
		if i != 0 && last >= idx {
			return v.failf(CategoryOrder, "Out-of-order entry types: %x then %x", last, idx)
		}
		last = idx
		p += format.AnnotationOffItemSize
	}
	v.ptr = p
	return nil
}
