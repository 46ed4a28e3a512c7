package format

import "github.com/joshuapare/dexkit/internal/buf"

// ProtoID is a proto_id_item. ReturnTypeIdx and ReturnPad together form the
// 32-bit slot the return type index is stored in.
type ProtoID struct {
	ShortyIdx     uint32
	ReturnTypeIdx uint16
	ReturnPad     uint16
	ParametersOff uint32
}

// FieldID is a field_id_item.
type FieldID struct {
	ClassIdx uint16
	TypeIdx  uint16
	NameIdx  uint32
}

// MethodID is a method_id_item.
type MethodID struct {
	ClassIdx uint16
	ProtoIdx uint16
	NameIdx  uint32
}

// ClassDef is a class_def_item. ClassIdx/Pad1 and SuperclassIdx/Pad2 are the
// halves of 32-bit slots; a non-zero pad is only legal as part of the
// 0xffff/0xffff "no superclass" pattern.
type ClassDef struct {
	ClassIdx        uint16
	Pad1            uint16
	AccessFlags     uint32
	SuperclassIdx   uint16
	Pad2            uint16
	InterfacesOff   uint32
	SourceFileIdx   uint32
	AnnotationsOff  uint32
	ClassDataOff    uint32
	StaticValuesOff uint32
}

// HasSuperclass reports whether the superclass slot holds an index.
func (c ClassDef) HasSuperclass() bool {
	return !(c.SuperclassIdx == NoIndex16 && c.Pad2 == NoIndex16)
}

// MethodHandle is a method_handle_item.
type MethodHandle struct {
	Type             uint16
	Unused1          uint16
	FieldOrMethodIdx uint16
	Unused2          uint16
}

// CodeItem is the fixed header of a standard code_item.
type CodeItem struct {
	RegistersSize uint16
	InsSize       uint16
	OutsSize      uint16
	TriesSize     uint16
	DebugInfoOff  uint32
	InsnsSize     uint32
}

// TryItem is one entry of a code_item's tries array.
type TryItem struct {
	StartAddr  uint32
	InsnCount  uint16
	HandlerOff uint16
}

// AnnotationsDirectory is the fixed header of an annotations_directory_item.
type AnnotationsDirectory struct {
	ClassAnnotationsOff uint32
	FieldsSize          uint32
	MethodsSize         uint32
	ParametersSize      uint32
}

// AnnotationOwner is one field/method/parameter annotations entry: the owning
// id index and the offset of its annotation set (or set ref list).
type AnnotationOwner struct {
	Idx            uint32
	AnnotationsOff uint32
}

// ReadStringDataOff returns string_id[...].string_data_off at off.
func ReadStringDataOff(b []byte, off int) uint32 { return buf.U32At(b, off) }

// ReadTypeDescriptorIdx returns type_id[...].descriptor_idx at off.
func ReadTypeDescriptorIdx(b []byte, off int) uint32 { return buf.U32At(b, off) }

// ReadProtoID decodes a proto_id_item at off.
func ReadProtoID(b []byte, off int) ProtoID {
	return ProtoID{
		ShortyIdx:     buf.U32At(b, off+ProtoShortyOffset),
		ReturnTypeIdx: buf.U16At(b, off+ProtoReturnTypeOffset),
		ReturnPad:     buf.U16At(b, off+ProtoReturnPadOffset),
		ParametersOff: buf.U32At(b, off+ProtoParametersOffset),
	}
}

// ReadFieldID decodes a field_id_item at off.
func ReadFieldID(b []byte, off int) FieldID {
	return FieldID{
		ClassIdx: buf.U16At(b, off+FieldClassOffset),
		TypeIdx:  buf.U16At(b, off+FieldTypeOffset),
		NameIdx:  buf.U32At(b, off+FieldNameOffset),
	}
}

// ReadMethodID decodes a method_id_item at off.
func ReadMethodID(b []byte, off int) MethodID {
	return MethodID{
		ClassIdx: buf.U16At(b, off+MethodClassOffset),
		ProtoIdx: buf.U16At(b, off+MethodProtoOffset),
		NameIdx:  buf.U32At(b, off+MethodNameOffset),
	}
}

// ReadClassDef decodes a class_def_item at off.
func ReadClassDef(b []byte, off int) ClassDef {
	return ClassDef{
		ClassIdx:        buf.U16At(b, off+ClassDefClassOffset),
		Pad1:            buf.U16At(b, off+ClassDefPad1Offset),
		AccessFlags:     buf.U32At(b, off+ClassDefAccessFlagsOffset),
		SuperclassIdx:   buf.U16At(b, off+ClassDefSuperclassOffset),
		Pad2:            buf.U16At(b, off+ClassDefPad2Offset),
		InterfacesOff:   buf.U32At(b, off+ClassDefInterfacesOffset),
		SourceFileIdx:   buf.U32At(b, off+ClassDefSourceFileOffset),
		AnnotationsOff:  buf.U32At(b, off+ClassDefAnnotationsOffset),
		ClassDataOff:    buf.U32At(b, off+ClassDefClassDataOffset),
		StaticValuesOff: buf.U32At(b, off+ClassDefStaticValuesOffset),
	}
}

// ReadMethodHandle decodes a method_handle_item at off.
func ReadMethodHandle(b []byte, off int) MethodHandle {
	return MethodHandle{
		Type:             buf.U16At(b, off),
		Unused1:          buf.U16At(b, off+2),
		FieldOrMethodIdx: buf.U16At(b, off+4),
		Unused2:          buf.U16At(b, off+6),
	}
}

// ReadMapItem decodes a map_item at off.
func ReadMapItem(b []byte, off int) MapItem {
	return MapItem{
		Type:   MapItemType(buf.U16At(b, off)),
		Unused: buf.U16At(b, off+2),
		Size:   buf.U32At(b, off+4),
		Offset: buf.U32At(b, off+8),
	}
}

// ReadCodeItem decodes the fixed part of a code_item at off.
func ReadCodeItem(b []byte, off int) CodeItem {
	return CodeItem{
		RegistersSize: buf.U16At(b, off+CodeRegistersOffset),
		InsSize:       buf.U16At(b, off+CodeInsOffset),
		OutsSize:      buf.U16At(b, off+CodeOutsOffset),
		TriesSize:     buf.U16At(b, off+CodeTriesOffset),
		DebugInfoOff:  buf.U32At(b, off+CodeDebugInfoOffset),
		InsnsSize:     buf.U32At(b, off+CodeInsnsSizeOffset),
	}
}

// ReadTryItem decodes a try_item at off.
func ReadTryItem(b []byte, off int) TryItem {
	return TryItem{
		StartAddr:  buf.U32At(b, off),
		InsnCount:  buf.U16At(b, off+4),
		HandlerOff: buf.U16At(b, off+6),
	}
}

// ReadAnnotationsDirectory decodes the header of an annotations_directory_item.
func ReadAnnotationsDirectory(b []byte, off int) AnnotationsDirectory {
	return AnnotationsDirectory{
		ClassAnnotationsOff: buf.U32At(b, off),
		FieldsSize:          buf.U32At(b, off+4),
		MethodsSize:         buf.U32At(b, off+8),
		ParametersSize:      buf.U32At(b, off+12),
	}
}

// ReadAnnotationOwner decodes a field/method/parameter annotations entry.
func ReadAnnotationOwner(b []byte, off int) AnnotationOwner {
	return AnnotationOwner{Idx: buf.U32At(b, off), AnnotationsOff: buf.U32At(b, off+4)}
}

// ReadTypeList returns the type indices of the type_list at off. The caller
// must have proven the list is in bounds.
func ReadTypeList(b []byte, off int) []uint16 {
	n := int(buf.U32At(b, off))
	out := make([]uint16, n)
	for i := range out {
		out[i] = buf.U16At(b, off+TypeListHeaderSize+i*TypeItemSize)
	}
	return out
}
