package verify

import (
	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
	"github.com/joshuapare/dexkit/internal/mutf8"
)

// checkInterClassDefItem cross-checks class_def number idx: descriptors,
// flags, the types of every referenced data item, definition order relative
// to the superclass and interfaces, and that its class data and annotations
// belong to this class.
func (v *Verifier) checkInterClassDefItem(idx uint32) error {
	item := format.ReadClassDef(v.data, v.ptr)

	if item.Pad1 != 0 {
		return v.failf(CategoryReference, "class with type idx outside uint16_t range '%x:%x'",
			item.Pad1, item.ClassIdx)
	}
	if !(item.Pad2 == 0 || (item.Pad2 == format.NoIndex16 && item.SuperclassIdx == format.NoIndex16)) {
		return v.failf(CategoryReference, "class with superclass type idx outside uint16_t range '%x:%x'",
			item.Pad2, item.SuperclassIdx)
	}

	if err := v.verifyTypeDescriptor(uint32(item.ClassIdx), "Invalid class descriptor", isClass); err != nil {
		return err
	}
	if item.AccessFlags&^format.AccJavaFlagsMask != 0 {
		return v.failf(CategoryPolicy, "Invalid class flags: '%d'", item.AccessFlags)
	}

	refs := []struct {
		off uint32
		typ format.MapItemType
	}{
		{item.InterfacesOff, format.TypeTypeList},
		{item.AnnotationsOff, format.TypeAnnotationsDirectoryItem},
		{item.ClassDataOff, format.TypeClassDataItem},
		{item.StaticValuesOff, format.TypeEncodedArrayItem},
	}
	for _, r := range refs {
		if r.off == 0 {
			continue
		}
		if err := v.checkOffsetToTypeMap(r.off, r.typ); err != nil {
			return err
		}
	}

	enforceOrder := v.hdr.EnforcesClassDefinitionOrder()

	if item.HasSuperclass() {
		super := item.SuperclassIdx
		if enforceOrder {
			if super == item.ClassIdx {
				return v.failf(CategoryReference, "Class with same type idx as its superclass: '%d'", item.ClassIdx)
			}
			if v.definedClasses[super] && v.definedClassIndexes[super] > idx {
				return v.failf(CategoryOrder,
					"Invalid class definition ordering: class with type idx: '%d' defined before superclass with type idx: '%d'",
					item.ClassIdx, super)
			}
		}
		if err := v.verifyTypeDescriptor(uint32(super), "Invalid superclass", isClass); err != nil {
			return err
		}
	}

	interfaces := v.typeList(item.InterfacesOff)
	for i, iface := range interfaces {
		if enforceOrder {
			if iface == item.ClassIdx {
				return v.failf(CategoryReference, "Class with same type idx as implemented interface: '%d'", item.ClassIdx)
			}
			if v.definedClasses[iface] && v.definedClassIndexes[iface] > idx {
				return v.failf(CategoryOrder,
					"Invalid class definition ordering: class with type idx: '%d' defined before implemented interface with type idx: '%d'",
					item.ClassIdx, iface)
			}
		}
		if err := v.verifyTypeDescriptor(uint32(iface), "Invalid interface", isClass); err != nil {
			return err
		}
		// Interface lists are short; a quadratic scan is fine.
		for _, earlier := range interfaces[:i] {
			if earlier == iface {
				return v.failf(CategoryDuplicate, "Duplicate interface: '%s'",
					mutf8.Printable(v.typeDescriptor(uint32(iface))))
			}
		}
	}

	if item.ClassDataOff != 0 {
		definer := v.classDataDefiner(item.ClassDataOff)
		if definer != format.NoIndex && definer != uint32(item.ClassIdx) {
			return v.failf(CategoryReference, "Invalid class_data_item")
		}
	}

	if item.AnnotationsOff != 0 {
		if !format.IsAligned(item.AnnotationsOff, 4) {
			return v.failf(CategoryAlignment, "Invalid annotations_off_, not aligned by 4")
		}
		definer := v.annotationsDirectoryDefiner(int(item.AnnotationsOff))
		if definer != format.NoIndex && definer != uint32(item.ClassIdx) {
			return v.failf(CategoryReference, "Invalid annotations_directory_item")
		}
	}

	v.ptr += format.ClassDefSize
	return nil
}

// classDataDefiner returns the class of the first field, or failing that the
// first method, of the class_data_item at off; NoIndex if it has no members.
func (v *Verifier) classDataDefiner(off uint32) uint32 {
	end := v.dataEnd()
	var counts [4]uint32
	p := int(off)
	for i := range counts {
		counts[i], p, _ = buf.ULEB128(v.data, p, end)
	}
	first, _, _ := buf.ULEB128(v.data, p, end)
	switch {
	case counts[0]+counts[1] != 0:
		return uint32(v.fieldID(first).ClassIdx)
	case counts[2]+counts[3] != 0:
		return uint32(v.methodID(first).ClassIdx)
	}
	return format.NoIndex
}

// annotationsDirectoryDefiner returns the class owning the first annotated
// field, method or parameter list of the directory at off, or NoIndex.
func (v *Verifier) annotationsDirectoryDefiner(off int) uint32 {
	dir := format.ReadAnnotationsDirectory(v.data, off)
	first := buf.U32At(v.data, off+format.AnnotationsDirectorySize)
	switch {
	case dir.FieldsSize != 0:
		return uint32(v.fieldID(first).ClassIdx)
	case dir.MethodsSize != 0, dir.ParametersSize != 0:
		return uint32(v.methodID(first).ClassIdx)
	}
	return format.NoIndex
}

// checkInterCallSiteIDItem checks that a call site's array starts with a
// method handle, a method name string and a method type.
func (v *Verifier) checkInterCallSiteIDItem() error {
	off := buf.U32At(v.data, v.ptr)
	if err := v.checkOffsetToTypeMap(off, format.TypeEncodedArrayItem); err != nil {
		return err
	}

	it, err := format.NewEncodedArrayIterator(v.data, int(off))
	invariant(err)

	steps := []struct {
		want    format.ValueType
		missing string
		bad     string
		limit   uint32
	}{
		{format.ValueMethodHandle, "CallSiteArray missing method handle", "CallSite has bad method handle id: %x", v.numMethodHandles},
		{format.ValueString, "CallSiteArray missing target method name", "CallSite has bad method name id: %x", v.hdr.StringIDs.Size},
		{format.ValueMethodType, "CallSiteArray missing method type", "CallSite has bad method type: %x", v.hdr.ProtoIDs.Size},
	}
	for _, s := range steps {
		if !it.HasNext() {
			return v.failf(CategoryReference, "%s", s.missing)
		}
		val, err := it.Next()
		invariant(err)
		if val.Type != s.want {
			return v.failf(CategoryReference, "%s", s.missing)
		}
		if idx := uint32(val.Raw); idx >= s.limit {
			return v.failf(CategoryReference, s.bad, idx)
		}
	}

	v.ptr += format.CallSiteIDSize
	return nil
}
