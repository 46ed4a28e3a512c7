package verify

import (
	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

// checkMap validates the map_list: entries in increasing offset order, inside
// the file, of known and unique types, with data-section counts that fit
// data_size. Every table the header declares must have a map entry.
func (v *Verifier) checkMap() error {
	h := &v.hdr
	mapOff := int(h.MapOff)
	v.ptr = mapOff

	if err := v.checkListSize(mapOff, 1, format.MapListHeaderSize+format.MapItemSize, "maplist content"); err != nil {
		return err
	}
	count := buf.U32At(v.data, mapOff)
	if err := v.checkListSize(mapOff+format.MapListHeaderSize, uint64(count), format.MapItemSize, "map size"); err != nil {
		return err
	}

	items := make([]format.MapItem, 0, count)
	var (
		lastOffset    uint32
		lastType      format.MapItemType
		dataItemCount uint32
		dataItemsLeft = h.Data.Size
		usedBits      uint32
	)
	for i := uint32(0); i < count; i++ {
		item := format.ReadMapItem(v.data, mapOff+format.MapListHeaderSize+int(i)*format.MapItemSize)

		if i != 0 && lastOffset >= item.Offset {
			return v.failf(CategoryOrder, "Out of order map item: %x then %x for type %x last type was %x",
				lastOffset, item.Offset, uint16(item.Type), uint16(lastType))
		}
		if item.Offset >= h.FileSize {
			return v.failf(CategoryBounds, "Map item after end of file: %x, size %x", item.Offset, h.FileSize)
		}

		if item.Type.IsDataSection() {
			if item.Size > dataItemsLeft {
				return v.failf(CategoryBounds, "Too many items in data section: %d item_type %x",
					dataItemCount+item.Size, uint16(item.Type))
			}
			dataItemsLeft -= item.Size
			dataItemCount += item.Size
		}

		bit := item.Type.Bit()
		if bit == 0 {
			return v.failf(CategoryEncoding, "Unknown map section type %x", uint16(item.Type))
		}
		if usedBits&bit != 0 {
			return v.failf(CategoryDuplicate, "Duplicate map section of type %x", uint16(item.Type))
		}
		usedBits |= bit

		if item.Type == format.TypeMethodHandleItem {
			v.numMethodHandles = item.Size
		}

		lastOffset = item.Offset
		lastType = item.Type
		items = append(items, item)
	}

	if usedBits&format.TypeHeaderItem.Bit() == 0 {
		return v.failf(CategoryReference, "Map is missing header entry")
	}
	if usedBits&format.TypeMapList.Bit() == 0 {
		return v.failf(CategoryReference, "Map is missing map_list entry")
	}

	required := []struct {
		sec   format.Section
		typ   format.MapItemType
		label string
	}{
		{h.StringIDs, format.TypeStringIDItem, "string_ids"},
		{h.TypeIDs, format.TypeTypeIDItem, "type_ids"},
		{h.ProtoIDs, format.TypeProtoIDItem, "proto_ids"},
		{h.FieldIDs, format.TypeFieldIDItem, "field_ids"},
		{h.MethodIDs, format.TypeMethodIDItem, "method_ids"},
		{h.ClassDefs, format.TypeClassDefItem, "class_defs"},
	}
	for _, r := range required {
		if usedBits&r.typ.Bit() == 0 && (r.sec.Offset != 0 || r.sec.Size != 0) {
			return v.failf(CategoryReference, "Map is missing %s entry", r.label)
		}
	}

	v.mapItems = items
	return nil
}

// idSection returns the header's description of a fixed id table.
func (v *Verifier) idSection(t format.MapItemType) format.Section {
	switch t {
	case format.TypeStringIDItem:
		return v.hdr.StringIDs
	case format.TypeTypeIDItem:
		return v.hdr.TypeIDs
	case format.TypeProtoIDItem:
		return v.hdr.ProtoIDs
	case format.TypeFieldIDItem:
		return v.hdr.FieldIDs
	case format.TypeMethodIDItem:
		return v.hdr.MethodIDs
	case format.TypeClassDefItem:
		return v.hdr.ClassDefs
	}
	return format.Section{}
}
