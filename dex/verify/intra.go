package verify

import (
	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

// checkIntraSection walks every map entry in offset order and validates each
// item on its own. Sections must not overlap, gaps must be zero padding, and
// every data item's offset is recorded for the cross-reference pass.
func (v *Verifier) checkIntraSection() error {
	v.offsets = newOffsetMap(v.hdr)
	v.ptr = 0
	offset := 0

	for _, item := range v.mapItems {
		current := offset
		sectionOffset := int(item.Offset)

		if err := v.checkPadding(offset, sectionOffset, item.Type); err != nil {
			return err
		}
		if offset > sectionOffset {
			return v.failf(CategoryOrder, "Section overlap or out-of-order map: %x, %x", offset, sectionOffset)
		}

		if item.Type == format.TypeClassDataItem {
			v.findStringRangesForMethodNames()
		}

		switch item.Type {
		case format.TypeHeaderItem:
			if item.Size != 1 {
				return v.failf(CategoryDuplicate, "Multiple header items")
			}
			if sectionOffset != 0 {
				return v.failf(CategoryBounds, "Header at %x, not at start of file", sectionOffset)
			}
			v.ptr = int(v.hdr.HeaderSize)
			offset = v.ptr

		case format.TypeStringIDItem, format.TypeTypeIDItem, format.TypeProtoIDItem,
			format.TypeFieldIDItem, format.TypeMethodIDItem, format.TypeClassDefItem:
			if err := v.checkIntraIDSection(item); err != nil {
				return err
			}
			offset = v.ptr

		case format.TypeMapList:
			if item.Size != 1 {
				return v.failf(CategoryDuplicate, "Multiple map list items")
			}
			if item.Offset != v.hdr.MapOff {
				return v.failf(CategoryBounds, "Map not at header-defined offset: %x, expected %x",
					item.Offset, v.hdr.MapOff)
			}
			v.ptr += format.MapListHeaderSize + len(v.mapItems)*format.MapItemSize
			offset = sectionOffset + format.MapListHeaderSize + len(v.mapItems)*format.MapItemSize

		case format.TypeMethodHandleItem, format.TypeCallSiteIDItem:
			if err := v.checkIntraSectionIterate(item.Type, sectionOffset, item.Size); err != nil {
				return err
			}
			offset = v.ptr

		default:
			if err := v.checkIntraDataSection(item); err != nil {
				return err
			}
			offset = v.ptr
		}

		if offset == current {
			return v.failf(CategoryEncoding, "Unknown map item type %x", uint16(item.Type))
		}
	}
	return nil
}

func (v *Verifier) checkIntraIDSection(item format.MapItem) error {
	want := v.idSection(item.Type)
	if item.Offset != want.Offset {
		return v.failf(CategoryBounds, "Bad offset for section: got %x, expected %x", item.Offset, want.Offset)
	}
	if item.Size != want.Size {
		return v.failf(CategoryBounds, "Bad size for section: got %x, expected %x", item.Size, want.Size)
	}
	return v.checkIntraSectionIterate(item.Type, int(item.Offset), item.Size)
}

func (v *Verifier) checkIntraDataSection(item format.MapItem) error {
	start := uint64(v.hdr.Data.Offset)
	end := start + uint64(v.hdr.Data.Size)
	if off := uint64(item.Offset); off < start || off > end {
		return v.failf(CategoryBounds, "Bad offset for data subsection: %x", item.Offset)
	}
	if err := v.checkIntraSectionIterate(item.Type, int(item.Offset), item.Size); err != nil {
		return err
	}
	if uint64(v.ptr) > end {
		return v.failf(CategoryBounds, "Out-of-bounds end of data subsection: %d data_off=%d data_size=%d",
			v.ptr, v.hdr.Data.Offset, v.hdr.Data.Size)
	}
	return nil
}

// checkPadding requires the bytes in [offset, aligned) to be zero and leaves
// the cursor at aligned.
func (v *Verifier) checkPadding(offset, aligned int, t format.MapItemType) error {
	if offset >= aligned {
		return nil
	}
	if err := v.checkListSize(offset, uint64(aligned-offset), 1, "section"); err != nil {
		return err
	}
	for ; offset < aligned; offset++ {
		if c := v.data[offset]; c != 0 {
			v.ptr = offset
			return v.failf(CategoryAlignment, "Non-zero padding %x before section of type %d at offset 0x%x",
				c, uint16(t), offset)
		}
	}
	v.ptr = aligned
	return nil
}

// checkIntraSectionIterate validates count consecutive items of type t
// starting at offset.
func (v *Verifier) checkIntraSectionIterate(t format.MapItemType, offset int, count uint32) error {
	alignment := t.Alignment()

	for i := uint32(0); i < count; i++ {
		aligned := format.AlignUp(offset, alignment)
		if err := v.checkPadding(offset, aligned, t); err != nil {
			return err
		}
		start := v.ptr

		var err error
		switch t {
		case format.TypeStringIDItem:
			err = v.skipFixed(format.StringIDSize, "string_ids")
		case format.TypeTypeIDItem:
			err = v.checkIntraTypeIDItem()
		case format.TypeProtoIDItem:
			err = v.checkIntraProtoIDItem()
		case format.TypeFieldIDItem:
			err = v.checkIntraFieldIDItem()
		case format.TypeMethodIDItem:
			err = v.checkIntraMethodIDItem()
		case format.TypeClassDefItem:
			err = v.checkIntraClassDefItem(i)
		case format.TypeCallSiteIDItem:
			err = v.skipFixed(format.CallSiteIDSize, "call_site_ids")
		case format.TypeMethodHandleItem:
			err = v.checkIntraMethodHandleItem()
		case format.TypeTypeList:
			err = v.checkIntraTypeList()
		case format.TypeAnnotationSetRefList:
			err = v.checkList(format.AnnotationSetRefItemSize, "annotation_set_ref_list")
		case format.TypeAnnotationSetItem:
			err = v.checkList(format.AnnotationOffItemSize, "annotation_set_item")
		case format.TypeClassDataItem:
			err = v.checkIntraClassDataItem()
		case format.TypeCodeItem:
			err = v.checkIntraCodeItem()
		case format.TypeStringDataItem:
			err = v.checkIntraStringDataItem()
		case format.TypeDebugInfoItem:
			err = v.checkIntraDebugInfoItem()
		case format.TypeAnnotationItem:
			err = v.checkIntraAnnotationItem()
		case format.TypeEncodedArrayItem:
			err = v.checkEncodedArray(0)
		case format.TypeAnnotationsDirectoryItem:
			err = v.checkIntraAnnotationsDirectoryItem()
		case format.TypeHiddenapiClassData:
			err = v.checkIntraHiddenapiClassData()
		}
		if err != nil {
			return err
		}

		if v.ptr == start {
			return v.failf(CategoryEncoding, "Unknown map item type %x", uint16(t))
		}

		if t.IsDataSection() {
			if aligned == 0 {
				return v.failf(CategoryBounds, "Item %d offset is 0", i)
			}
			if err := v.recordItem(uint32(aligned), t); err != nil {
				return err
			}
		}

		if v.ptr > len(v.data) {
			return v.failf(CategoryBounds, "Item %d at ends out of bounds", i)
		}
		offset = v.ptr
	}
	return nil
}

// skipFixed checks that one record of size bytes fits and steps over it.
func (v *Verifier) skipFixed(size uint64, label string) error {
	if err := v.checkListSize(v.ptr, 1, size, label); err != nil {
		return err
	}
	v.ptr += int(size)
	return nil
}

func (v *Verifier) checkIntraTypeIDItem() error {
	if err := v.checkListSize(v.ptr, 1, format.TypeIDSize, "type_ids"); err != nil {
		return err
	}
	idx := format.ReadTypeDescriptorIdx(v.data, v.ptr)
	if err := v.checkIndex(idx, v.hdr.StringIDs.Size, "type_id.descriptor"); err != nil {
		return err
	}
	v.ptr += format.TypeIDSize
	return nil
}

func (v *Verifier) checkIntraProtoIDItem() error {
	if err := v.checkListSize(v.ptr, 1, format.ProtoIDSize, "proto_ids"); err != nil {
		return err
	}
	p := format.ReadProtoID(v.data, v.ptr)
	if err := v.checkIndex(p.ShortyIdx, v.hdr.StringIDs.Size, "proto_id.shorty"); err != nil {
		return err
	}
	if err := v.checkIndex(uint32(p.ReturnTypeIdx), v.hdr.TypeIDs.Size, "proto_id.return_type"); err != nil {
		return err
	}
	v.ptr += format.ProtoIDSize
	return nil
}

func (v *Verifier) checkIntraFieldIDItem() error {
	if err := v.checkListSize(v.ptr, 1, format.FieldIDSize, "field_ids"); err != nil {
		return err
	}
	f := format.ReadFieldID(v.data, v.ptr)
	if err := v.checkIndex(uint32(f.ClassIdx), v.hdr.TypeIDs.Size, "field_id.class"); err != nil {
		return err
	}
	if err := v.checkIndex(uint32(f.TypeIdx), v.hdr.TypeIDs.Size, "field_id.type"); err != nil {
		return err
	}
	if err := v.checkIndex(f.NameIdx, v.hdr.StringIDs.Size, "field_id.name"); err != nil {
		return err
	}
	v.ptr += format.FieldIDSize
	return nil
}

func (v *Verifier) checkIntraMethodIDItem() error {
	if err := v.checkListSize(v.ptr, 1, format.MethodIDSize, "method_ids"); err != nil {
		return err
	}
	m := format.ReadMethodID(v.data, v.ptr)
	if err := v.checkIndex(uint32(m.ClassIdx), v.hdr.TypeIDs.Size, "method_id.class"); err != nil {
		return err
	}
	if err := v.checkIndex(uint32(m.ProtoIdx), v.hdr.ProtoIDs.Size, "method_id.proto"); err != nil {
		return err
	}
	if err := v.checkIndex(m.NameIdx, v.hdr.StringIDs.Size, "method_id.name"); err != nil {
		return err
	}
	v.ptr += format.MethodIDSize
	return nil
}

// checkIntraClassDefItem validates class_def number i and records which class
// it defines.
func (v *Verifier) checkIntraClassDefItem(i uint32) error {
	if err := v.checkListSize(v.ptr, 1, format.ClassDefSize, "class_defs"); err != nil {
		return err
	}
	cd := format.ReadClassDef(v.data, v.ptr)
	if err := v.checkIndex(uint32(cd.ClassIdx), v.hdr.TypeIDs.Size, "class_def.class"); err != nil {
		return err
	}

	// A non-zero pad is only legal as the high half of the no-superclass marker.
	if cd.Pad2 != 0 {
		combined := uint32(cd.Pad2)<<16 | uint32(cd.SuperclassIdx)
		if combined != format.NoIndex {
			return v.failf(CategoryReference, "Invalid superclass type padding/index: %x", combined)
		}
	} else if err := v.checkIndex(uint32(cd.SuperclassIdx), v.hdr.TypeIDs.Size, "class_def.superclass"); err != nil {
		return err
	}

	if v.definedClasses[cd.ClassIdx] {
		return v.failf(CategoryDuplicate, "Redefinition of class with type idx: '%d'", cd.ClassIdx)
	}
	v.definedClasses[cd.ClassIdx] = true
	v.definedClassIndexes[cd.ClassIdx] = i

	v.ptr += format.ClassDefSize
	return nil
}

func (v *Verifier) checkIntraMethodHandleItem() error {
	if err := v.checkListSize(v.ptr, 1, format.MethodHandleSize, "method_handles"); err != nil {
		return err
	}
	mh := format.ReadMethodHandle(v.data, v.ptr)
	if mh.Type > format.MethodHandleLast {
		return v.failf(CategoryEncoding, "Bad method handle type %x", mh.Type)
	}

	idx := uint32(mh.FieldOrMethodIdx)
	var err error
	if mh.Type <= format.MethodHandleInstanceGet {
		err = v.checkIndex(idx, v.hdr.FieldIDs.Size, "method_handle_item field_idx")
	} else {
		err = v.checkIndex(idx, v.hdr.MethodIDs.Size, "method_handle_item method_idx")
	}
	if err != nil {
		return err
	}
	v.ptr += format.MethodHandleSize
	return nil
}

func (v *Verifier) checkIntraTypeList() error {
	start := v.ptr
	if err := v.checkList(format.TypeItemSize, "type_list"); err != nil {
		return err
	}
	count := buf.U32At(v.data, start)
	for i := uint32(0); i < count; i++ {
		idx := buf.U16At(v.data, start+format.TypeListHeaderSize+int(i)*format.TypeItemSize)
		if err := v.checkIndex(uint32(idx), v.hdr.TypeIDs.Size, "type_list.type"); err != nil {
			return err
		}
	}
	return nil
}
