package verify

import "github.com/joshuapare/dexkit/internal/format"

// offsetMap records the type of every data-section item found while walking
// the map, keyed by the item's aligned start offset.
type offsetMap map[uint32]format.MapItemType

func newOffsetMap(h format.Header) offsetMap {
	capped := func(n uint32) int {
		if n > format.TypeIDLimit {
			return format.TypeIDLimit
		}
		return int(n)
	}
	hint := capped(h.ClassDefs.Size) + capped(h.StringIDs.Size) + 2*capped(h.MethodIDs.Size)
	return make(offsetMap, hint)
}

func (v *Verifier) recordItem(off uint32, t format.MapItemType) error {
	if prev, ok := v.offsets[off]; ok {
		return v.failf(CategoryDuplicate, "Duplicate data item @ %x: %s and %s", off, prev, t)
	}
	v.offsets[off] = t
	return nil
}

// checkOffsetToTypeMap fails unless a data item of type want starts at off.
func (v *Verifier) checkOffsetToTypeMap(off uint32, want format.MapItemType) error {
	got, ok := v.offsets[off]
	if !ok {
		return v.failf(CategoryReference, "No data map entry found @ %x; expected %x", off, uint16(want))
	}
	if got != want {
		return v.failf(CategoryReference, "Unexpected data map entry @ %x; expected %x, found %x",
			off, uint16(want), uint16(got))
	}
	return nil
}
