// Package dexbuild assembles small, valid dex images for tests. A File lists
// the id tables and classes; Build lays them out, fills the map and header,
// and seals the checksum and signature. The returned Layout records where
// each item landed so tests can corrupt one field and reseal.
package dexbuild

import "github.com/joshuapare/dexkit/internal/format"

// NoIndex marks an absent superclass or source file.
const NoIndex = format.NoIndex

// File describes the contents of a dex image. Tables are emitted in the
// order given; callers are responsible for sorting them when a test needs a
// valid file.
type File struct {
	// Version is the three-digit dex version. Empty means "039".
	Version string

	Strings       []string
	Types         []uint32 // string index of each descriptor
	Protos        []Proto
	Fields        []FieldRef
	Methods       []MethodRef
	Classes       []Class
	MethodHandles []MethodHandle
	CallSites     [][]byte // encoded_array_item bytes, see Array
}

// Proto is a proto_id_item with its parameter list.
type Proto struct {
	Shorty uint32
	Return uint16
	Params []uint16
}

// FieldRef is a field_id_item.
type FieldRef struct {
	Class uint16
	Type  uint16
	Name  uint32
}

// MethodRef is a method_id_item.
type MethodRef struct {
	Class uint16
	Proto uint16
	Name  uint32
}

// MethodHandle is a method_handle_item.
type MethodHandle struct {
	Type uint16
	Idx  uint16
}

// Class is a class_def_item together with the data items it owns.
type Class struct {
	Type        uint16
	AccessFlags uint32
	Superclass  uint32 // type index, or NoIndex
	Interfaces  []uint16
	SourceFile  uint32 // string index, or NoIndex

	StaticFields   []Field
	InstanceFields []Field
	DirectMethods  []Method
	VirtualMethods []Method

	// StaticValues is an encoded_array_item, see Array.
	StaticValues []byte

	Annotations *Annotations

	// Hiddenapi holds one flags value per member, fields then methods. Nil
	// leaves the class without hidden API data.
	Hiddenapi []uint32
}

// Field is an encoded_field with an absolute field index.
type Field struct {
	Idx   uint32
	Flags uint32
}

// Method is an encoded_method with an absolute method index.
type Method struct {
	Idx   uint32
	Flags uint32
	Code  *Code
}

// Code is a code_item. Handlers holds the raw encoded_catch_handler_list and
// is only emitted when Tries is non-empty. Debug, if set, is emitted as a
// debug_info_item and linked from the code item.
type Code struct {
	Registers uint16
	Ins       uint16
	Outs      uint16
	Insns     []uint16
	Tries     []Try
	Handlers  []byte
	Debug     []byte
}

// Try is a try_item.
type Try struct {
	Start      uint32
	Count      uint16
	HandlerOff uint16
}

// Annotations is an annotations_directory_item.
type Annotations struct {
	Class      []Annotation
	Fields     []MemberAnnotations
	Methods    []MemberAnnotations
	Parameters []ParameterAnnotations
}

// MemberAnnotations attaches an annotation set to a field or method.
type MemberAnnotations struct {
	Idx uint32
	Set []Annotation
}

// ParameterAnnotations attaches one annotation set per parameter to a
// method. A nil set is written as offset 0.
type ParameterAnnotations struct {
	Idx  uint32
	Sets [][]Annotation
}

// Annotation is an annotation_item.
type Annotation struct {
	Visibility byte
	Type       uint32
	Elements   []Element
}

// Element is one name/value pair of an encoded_annotation. Value is an
// encoded_value, see the value helpers.
type Element struct {
	Name  uint32
	Value []byte
}

// Layout records where Build placed each item.
type Layout struct {
	StringIDs, TypeIDs, ProtoIDs, FieldIDs, MethodIDs, ClassDefs int

	DataOff int
	MapOff  int

	// Sections is the map_list, in offset order.
	Sections []format.MapItem

	StringData     []int
	TypeLists      []int // protos with parameters first, then class interfaces
	Code           []int // in class and method order
	DebugInfo      []int
	ClassData      []int // per class; 0 when the class has no members
	StaticValues   []int // per class; 0 when absent
	CallSites      []int // offset of each call site's encoded array
	Directories    []int // per class; 0 when absent
	AnnotationSets []int
	Hiddenapi      int
}

// Section returns the map entry for t.
func (l Layout) Section(t format.MapItemType) (format.MapItem, bool) {
	for _, s := range l.Sections {
		if s.Type == t {
			return s, true
		}
	}
	return format.MapItem{}, false
}

// Image is a built dex file.
type Image struct {
	Bytes  []byte
	Layout Layout
}
