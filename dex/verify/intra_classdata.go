package verify

import (
	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

// checkIntraClassDataItem validates the structure of a class_data_item: every
// index in range, strictly increasing within each list, static fields flagged
// static, and no virtual method sharing an index with a direct method.
func (v *Verifier) checkIntraClassDataItem() error {
	end := v.dataEnd()
	var counts [4]uint32
	for i := range counts {
		val, next, ok := buf.ULEB128(v.data, v.ptr, end)
		if !ok {
			return v.failf(CategoryBounds, "class_data_item read out of bounds")
		}
		counts[i] = val
		v.ptr = next
	}
	staticFields, instanceFields, directMethods, virtualMethods := counts[0], counts[1], counts[2], counts[3]

	if err := v.checkIntraClassDataFields(staticFields, true); err != nil {
		return err
	}
	if err := v.checkIntraClassDataFields(instanceFields, false); err != nil {
		return err
	}

	directStart := v.ptr
	if err := v.checkIntraClassDataMethods(directMethods, false, nil); err != nil {
		return err
	}
	var directs *encodedMethodCursor
	if directMethods != 0 {
		directs = &encodedMethodCursor{data: v.data, pos: directStart, end: end, remaining: directMethods}
		directs.next()
	}
	return v.checkIntraClassDataMethods(virtualMethods, true, directs)
}

func (v *Verifier) checkIntraClassDataFields(count uint32, static bool) error {
	descr := "instance field"
	if static {
		descr = "static field"
	}
	end := v.dataEnd()

	var prev uint32
	for i := uint32(0); i < count; i++ {
		diff, next, ok := buf.ULEB128(v.data, v.ptr, end)
		if !ok {
			return v.failf(CategoryBounds, "encoded_field read out of bounds")
		}
		flags, next, ok := buf.ULEB128(v.data, next, end)
		if !ok {
			return v.failf(CategoryBounds, "encoded_field read out of bounds")
		}

		cur := prev + diff
		if err := v.checkIndex(cur, v.hdr.FieldIDs.Size, "class_data_item field_idx"); err != nil {
			return err
		}
		if err := v.checkOrder(descr, i, cur, prev); err != nil {
			return err
		}
		if (flags&format.AccStatic != 0) != static {
			return v.failf(CategoryPolicy, "Static/instance field not in expected list")
		}

		prev = cur
		v.ptr = next
	}
	return nil
}

// checkIntraClassDataMethods validates count encoded methods at the cursor.
// For the virtual list, directs walks the direct methods in lockstep so a
// shared index is caught without materializing either list.
func (v *Verifier) checkIntraClassDataMethods(count uint32, virtual bool, directs *encodedMethodCursor) error {
	descr := "direct method"
	if virtual {
		descr = "virtual method"
	}
	end := v.dataEnd()

	var prev uint32
	for i := uint32(0); i < count; i++ {
		var vals [3]uint32
		next := v.ptr
		for k := range vals {
			val, n, ok := buf.ULEB128(v.data, next, end)
			if !ok {
				return v.failf(CategoryBounds, "encoded_method read out of bounds")
			}
			vals[k] = val
			next = n
		}

		cur := prev + vals[0]
		if err := v.checkIndex(cur, v.hdr.MethodIDs.Size, "class_data_item method_idx"); err != nil {
			return err
		}
		if err := v.checkOrder(descr, i, cur, prev); err != nil {
			return err
		}

		for directs != nil && directs.idx <= cur {
			if directs.idx == cur {
				return v.failf(CategoryDuplicate, "Found virtual method with same index as direct method: %d", cur)
			}
			if !directs.next() {
				directs = nil
			}
		}

		prev = cur
		v.ptr = next
	}
	return nil
}

// checkOrder requires member indices to strictly increase within a list.
func (v *Verifier) checkOrder(descr string, i, cur, prev uint32) error {
	if i > 0 && cur <= prev {
		return v.failf(CategoryOrder, "out-of-order %s indexes %d and %d", descr, prev, cur)
	}
	return nil
}

// encodedMethodCursor re-reads encoded_method entries that have already been
// validated, exposing one absolute method index at a time.
type encodedMethodCursor struct {
	data      []byte
	pos, end  int
	remaining uint32
	idx       uint32
}

// next advances to the following entry and reports whether there was one.
func (c *encodedMethodCursor) next() bool {
	if c.remaining == 0 {
		return false
	}
	diff, pos, _ := buf.ULEB128(c.data, c.pos, c.end)
	_, pos, _ = buf.ULEB128(c.data, pos, c.end)
	_, pos, _ = buf.ULEB128(c.data, pos, c.end)
	c.idx += diff
	c.pos = pos
	c.remaining--
	return true
}
