package format

import "fmt"

// MapItemType is the type code of a map_list entry.
type MapItemType uint16

const (
	TypeHeaderItem               MapItemType = 0x0000
	TypeStringIDItem             MapItemType = 0x0001
	TypeTypeIDItem               MapItemType = 0x0002
	TypeProtoIDItem              MapItemType = 0x0003
	TypeFieldIDItem              MapItemType = 0x0004
	TypeMethodIDItem             MapItemType = 0x0005
	TypeClassDefItem             MapItemType = 0x0006
	TypeCallSiteIDItem           MapItemType = 0x0007
	TypeMethodHandleItem         MapItemType = 0x0008
	TypeMapList                  MapItemType = 0x1000
	TypeTypeList                 MapItemType = 0x1001
	TypeAnnotationSetRefList     MapItemType = 0x1002
	TypeAnnotationSetItem        MapItemType = 0x1003
	TypeClassDataItem            MapItemType = 0x2000
	TypeCodeItem                 MapItemType = 0x2001
	TypeStringDataItem           MapItemType = 0x2002
	TypeDebugInfoItem            MapItemType = 0x2003
	TypeAnnotationItem           MapItemType = 0x2004
	TypeEncodedArrayItem         MapItemType = 0x2005
	TypeAnnotationsDirectoryItem MapItemType = 0x2006
	TypeHiddenapiClassData       MapItemType = 0xF000
)

var mapTypeNames = map[MapItemType]string{
	TypeHeaderItem:               "header_item",
	TypeStringIDItem:             "string_id_item",
	TypeTypeIDItem:               "type_id_item",
	TypeProtoIDItem:              "proto_id_item",
	TypeFieldIDItem:              "field_id_item",
	TypeMethodIDItem:             "method_id_item",
	TypeClassDefItem:             "class_def_item",
	TypeCallSiteIDItem:           "call_site_id_item",
	TypeMethodHandleItem:         "method_handle_item",
	TypeMapList:                  "map_list",
	TypeTypeList:                 "type_list",
	TypeAnnotationSetRefList:     "annotation_set_ref_list",
	TypeAnnotationSetItem:        "annotation_set_item",
	TypeClassDataItem:            "class_data_item",
	TypeCodeItem:                 "code_item",
	TypeStringDataItem:           "string_data_item",
	TypeDebugInfoItem:            "debug_info_item",
	TypeAnnotationItem:           "annotation_item",
	TypeEncodedArrayItem:         "encoded_array_item",
	TypeAnnotationsDirectoryItem: "annotations_directory_item",
	TypeHiddenapiClassData:       "hiddenapi_class_data_item",
}

func (t MapItemType) String() string {
	if name, ok := mapTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("map_item_type(0x%04x)", uint16(t))
}

// Bit returns the presence bit used to detect duplicate map sections, or 0
// for an unknown type.
func (t MapItemType) Bit() uint32 {
	switch t {
	case TypeHeaderItem:
		return 1 << 0
	case TypeStringIDItem:
		return 1 << 1
	case TypeTypeIDItem:
		return 1 << 2
	case TypeProtoIDItem:
		return 1 << 3
	case TypeFieldIDItem:
		return 1 << 4
	case TypeMethodIDItem:
		return 1 << 5
	case TypeClassDefItem:
		return 1 << 6
	case TypeCallSiteIDItem:
		return 1 << 7
	case TypeMethodHandleItem:
		return 1 << 8
	case TypeMapList:
		return 1 << 9
	case TypeTypeList:
		return 1 << 10
	case TypeAnnotationSetRefList:
		return 1 << 11
	case TypeAnnotationSetItem:
		return 1 << 12
	case TypeClassDataItem:
		return 1 << 13
	case TypeCodeItem:
		return 1 << 14
	case TypeStringDataItem:
		return 1 << 15
	case TypeDebugInfoItem:
		return 1 << 16
	case TypeAnnotationItem:
		return 1 << 17
	case TypeEncodedArrayItem:
		return 1 << 18
	case TypeAnnotationsDirectoryItem:
		return 1 << 19
	case TypeHiddenapiClassData:
		return 1 << 20
	}
	return 0
}

// IsDataSection reports whether items of this type live in the data section
// and are counted against header.data_size. Everything but the header and the
// six fixed id tables is.
func (t MapItemType) IsDataSection() bool {
	switch t {
	case TypeHeaderItem, TypeStringIDItem, TypeTypeIDItem, TypeProtoIDItem,
		TypeFieldIDItem, TypeMethodIDItem, TypeClassDefItem:
		return false
	}
	return true
}

// Alignment returns the required alignment of items of this type.
func (t MapItemType) Alignment() int {
	switch t {
	case TypeClassDataItem, TypeStringDataItem, TypeDebugInfoItem,
		TypeAnnotationItem, TypeEncodedArrayItem:
		return 1
	}
	return 4
}

// MapItem is one map_list entry.
type MapItem struct {
	Type   MapItemType
	Unused uint16
	Size   uint32
	Offset uint32
}
