package verify

import "github.com/joshuapare/dexkit/internal/format"

// checkInterClassDataItem checks that every member of a class_data_item
// belongs to one defined class, applies the access-flag rules to each member,
// and matches static field types against the class's static values.
func (v *Verifier) checkInterClassDataItem() error {
	cd, err := format.DecodeClassData(v.data, v.ptr, v.dataEnd())
	invariant(err)

	definer := uint32(format.NoIndex)
	if fields := cd.Fields(); len(fields) > 0 {
		definer = uint32(v.fieldID(fields[0].Idx).ClassIdx)
	} else if methods := cd.Methods(); len(methods) > 0 {
		definer = uint32(v.methodID(methods[0].Idx).ClassIdx)
	}
	if definer == format.NoIndex {
		v.ptr = cd.End
		return nil
	}

	if !v.definedClasses[definer] {
		return v.failf(CategoryReference, "Could not find declaring class for non-empty class data item.")
	}
	classDef := v.classDef(v.definedClassIndexes[definer])

	for _, f := range cd.Fields() {
		if uint32(v.fieldID(f.Idx).ClassIdx) != definer {
			return v.failf(CategoryReference, "Mismatched defining class for class_data_item field")
		}
		if err := v.checkClassDataItemField(f.Idx, f.AccessFlags, classDef.AccessFlags, definer); err != nil {
			return err
		}
	}

	for k, m := range cd.Methods() {
		if m.CodeOff != 0 {
			if err := v.checkOffsetToTypeMap(m.CodeOff, format.TypeCodeItem); err != nil {
				return err
			}
		}
		if uint32(v.methodID(m.Idx).ClassIdx) != definer {
			return v.failf(CategoryReference, "Mismatched defining class for class_data_item method")
		}
		expectDirect := k < len(cd.DirectMethods)
		if err := v.checkClassDataItemMethod(m.Idx, m.AccessFlags, classDef.AccessFlags, definer,
			m.CodeOff != 0, expectDirect); err != nil {
			return err
		}
	}

	if err := v.checkStaticFieldTypes(classDef, cd.StaticFields); err != nil {
		return err
	}

	v.ptr = cd.End
	return nil
}

// checkStaticFieldTypes matches each static field, in order, against the
// corresponding value of the class's static_values array.
func (v *Verifier) checkStaticFieldTypes(classDef format.ClassDef, fields []format.EncodedField) error {
	if classDef.StaticValuesOff == 0 {
		return nil
	}
	if err := v.checkOffsetToTypeMap(classDef.StaticValuesOff, format.TypeEncodedArrayItem); err != nil {
		return err
	}
	it, err := format.NewEncodedArrayIterator(v.data, int(classDef.StaticValuesOff))
	invariant(err)

	for _, f := range fields {
		if !it.HasNext() {
			break
		}
		c := firstChar(v.typeDescriptor(uint32(v.fieldID(f.Idx).TypeIdx)))
		val, err := it.Next()
		invariant(err)

		switch val.Type {
		case format.ValueBoolean, format.ValueByte, format.ValueShort, format.ValueChar,
			format.ValueInt, format.ValueLong, format.ValueFloat, format.ValueDouble:
			want := staticValueChar[val.Type]
			if c != want {
				return v.failf(CategoryReference, "unexpected static field initial value type: '%c' vs '%c'", want, c)
			}
		case format.ValueNull, format.ValueString, format.ValueTypeIdx:
			if isPrimitive(c) || c == 'V' {
				return v.failf(CategoryReference, "unexpected static field initial value type: 'L' vs '%c'", c)
			}
		default:
			return v.failf(CategoryReference, "unexpected static field initial value type: %x", uint8(val.Type))
		}
	}

	if it.HasNext() {
		return v.failf(CategoryReference, "too many static field initial values")
	}
	return nil
}

var staticValueChar = map[format.ValueType]byte{
	format.ValueBoolean: 'Z',
	format.ValueByte:    'B',
	format.ValueShort:   'S',
	format.ValueChar:    'C',
	format.ValueInt:     'I',
	format.ValueLong:    'J',
	format.ValueFloat:   'F',
	format.ValueDouble:  'D',
}

// checkInterAnnotationsDirectoryItem checks that every annotated member
// belongs to the same class and every offset points at the right item type.
func (v *Verifier) checkInterAnnotationsDirectoryItem() error {
	dir := format.ReadAnnotationsDirectory(v.data, v.ptr)
	definer := v.annotationsDirectoryDefiner(v.ptr)

	if dir.ClassAnnotationsOff != 0 {
		if err := v.checkOffsetToTypeMap(dir.ClassAnnotationsOff, format.TypeAnnotationSetItem); err != nil {
			return err
		}
	}

	p := v.ptr + format.AnnotationsDirectorySize
	for i := uint32(0); i < dir.FieldsSize; i++ {
		owner := format.ReadAnnotationOwner(v.data, p)
		if uint32(v.fieldID(owner.Idx).ClassIdx) != definer {
			return v.failf(CategoryReference, "Mismatched defining class for field_annotation")
		}
		if err := v.checkOffsetToTypeMap(owner.AnnotationsOff, format.TypeAnnotationSetItem); err != nil {
			return err
		}
		p += format.FieldAnnotationsItemSize
	}
	for i := uint32(0); i < dir.MethodsSize; i++ {
		owner := format.ReadAnnotationOwner(v.data, p)
		if uint32(v.methodID(owner.Idx).ClassIdx) != definer {
			return v.failf(CategoryReference, "Mismatched defining class for method_annotation")
		}
		if err := v.checkOffsetToTypeMap(owner.AnnotationsOff, format.TypeAnnotationSetItem); err != nil {
			return err
		}
		p += format.MethodAnnotationsItemSize
	}
	for i := uint32(0); i < dir.ParametersSize; i++ {
		owner := format.ReadAnnotationOwner(v.data, p)
		if uint32(v.methodID(owner.Idx).ClassIdx) != definer {
			return v.failf(CategoryReference, "Mismatched defining class for parameter_annotation")
		}
		if err := v.checkOffsetToTypeMap(owner.AnnotationsOff, format.TypeAnnotationSetRefList); err != nil {
			return err
		}
		p += format.ParameterAnnotationsItemSize
	}

	v.ptr = p
	return nil
}
