package verify

import (
	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

func (v *Verifier) checkIntraAnnotationItem() error {
	if err := v.checkListSize(v.ptr, 1, 1, "annotation visibility"); err != nil {
		return err
	}
	visibility := v.data[v.ptr]
	v.ptr++
	switch visibility {
	case format.VisibilityBuild, format.VisibilityRuntime, format.VisibilitySystem:
	default:
		return v.failf(CategoryEncoding, "Bad annotation visibility: %x", visibility)
	}
	return v.checkEncodedAnnotation(0)
}

// checkIntraAnnotationsDirectoryItem validates the three owner lists of an
// annotations_directory_item. Each list must be sorted by member index.
func (v *Verifier) checkIntraAnnotationsDirectoryItem() error {
	if err := v.checkListSize(v.ptr, 1, format.AnnotationsDirectorySize, "annotations_directory"); err != nil {
		return err
	}
	dir := format.ReadAnnotationsDirectory(v.data, v.ptr)
	p := v.ptr + format.AnnotationsDirectorySize

	lists := []struct {
		count    uint32
		limit    uint32
		list     string
		index    string
		orderMsg string
	}{
		{dir.FieldsSize, v.hdr.FieldIDs.Size, "field_annotations list", "field annotation",
			"Out-of-order field_idx for annotation: %x then %x"},
		{dir.MethodsSize, v.hdr.MethodIDs.Size, "method_annotations list", "method annotation",
			"Out-of-order method_idx for annotation: %x then %x"},
		{dir.ParametersSize, v.hdr.MethodIDs.Size, "parameter_annotations list", "parameter annotation method",
			"Out-of-order method_idx for annotation: %x then %x"},
	}
	for _, l := range lists {
		if err := v.checkListSize(p, uint64(l.count), format.FieldAnnotationsItemSize, l.list); err != nil {
			return err
		}
		var last uint32
		for i := uint32(0); i < l.count; i++ {
			idx := buf.U32At(v.data, p)
			if err := v.checkIndex(idx, l.limit, l.index); err != nil {
				return err
			}
			if i != 0 && last >= idx {
				return v.failf(CategoryOrder, l.orderMsg, last, idx)
			}
			last = idx
			p += format.FieldAnnotationsItemSize
		}
	}

	v.ptr = p
	return nil
}

// checkIntraHiddenapiClassData validates the hidden API section: a size, one
// offset per class_def, then one ULEB128 flags value per member of every class
// with class data, packed back to back.
func (v *Verifier) checkIntraHiddenapiClassData() error {
	start := v.ptr
	numClassDefs := v.hdr.ClassDefs.Size
	headerElems := uint64(numClassDefs) + 1

	if err := v.checkListSize(start, headerElems, 4, "hiddenapi class data section header"); err != nil {
		return err
	}
	size := buf.U32At(v.data, start)
	if err := v.checkListSize(start, uint64(size), 1, "hiddenapi class data section"); err != nil {
		return err
	}
	headerSize := headerElems * 4
	if uint64(size) < headerSize {
		return v.failf(CategoryBounds, "Hiddenapi class data too short to store header (%d < %d)", size, headerSize)
	}

	end := start + int(size)
	v.ptr = start + int(headerSize)

	for i := uint32(0); i < numClassDefs; i++ {
		offset := buf.U32At(v.data, start+4*int(i+1))
		if offset == 0 {
			continue
		}
		cd := format.ReadClassDef(v.data, int(v.hdr.ClassDefs.Offset)+int(i)*format.ClassDefSize)
		if cd.ClassDataOff == 0 {
			return v.failf(CategoryReference,
				"Hiddenapi class data offset not zero for class def %d with no class data", i)
		}
		if offset > size {
			return v.failf(CategoryBounds,
				"Hiddenapi class data offset out of section bounds (%d > %d) for class def %d", offset, size, i)
		}
		if want := uint32(v.ptr - start); offset != want {
			return v.failf(CategoryBounds,
				"Hiddenapi class data unexpected offset (%d != %d) for class def %d", offset, want, i)
		}

		classData, err := format.DecodeClassData(v.data, int(cd.ClassDataOff), v.dataEnd())
		if err != nil {
			return v.failf(CategoryReference,
				"Hiddenapi class data refers to unreadable class_data_item for class def %d", i)
		}
		for _, f := range classData.Fields() {
			if err := v.checkHiddenapiFlags(end, "field", f.Idx); err != nil {
				return err
			}
		}
		for _, m := range classData.Methods() {
			if err := v.checkHiddenapiFlags(end, "method", m.Idx); err != nil {
				return err
			}
		}
	}

	if v.ptr != end {
		return v.failf(CategoryBounds, "Hiddenapi class data wrong reported size (%d != %d)", v.ptr-start, size)
	}
	return nil
}

func (v *Verifier) checkHiddenapiFlags(end int, member string, idx uint32) error {
	flags, next, ok := buf.ULEB128(v.data, v.ptr, end)
	if !ok {
		return v.failf(CategoryBounds, "Hiddenapi class data value out of bounds (%x > %x) for %s %d",
			v.ptr, end, member, idx)
	}
	if !format.IsValidHiddenapiFlags(flags) {
		return v.failf(CategoryEncoding, "Hiddenapi class data flags invalid (%d) for %s %d", flags, member, idx)
	}
	v.ptr = next
	return nil
}
