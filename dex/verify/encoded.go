package verify

import "github.com/joshuapare/dexkit/internal/format"

// checkEncodedValue validates one encoded_value at the cursor. depth counts
// enclosing arrays and annotations.
func (v *Verifier) checkEncodedValue(depth int) error {
	if depth > format.MaxEncodedDepth {
		return v.failf(CategoryEncoding, "encoded_value nesting too deep")
	}
	if err := v.checkListSize(v.ptr, 1, 1, "encoded_value header"); err != nil {
		return err
	}
	typ, arg := format.SplitValueHeader(v.data[v.ptr])
	v.ptr++

	switch typ {
	case format.ValueByte:
		if arg != 0 {
			return v.failf(CategoryEncoding, "Bad encoded_value byte size %x", arg)
		}
		return v.skip(1)
	case format.ValueShort, format.ValueChar:
		if arg > 1 {
			return v.failf(CategoryEncoding, "Bad encoded_value char/short size %x", arg)
		}
		return v.skip(arg + 1)
	case format.ValueInt, format.ValueFloat:
		if arg > 3 {
			return v.failf(CategoryEncoding, "Bad encoded_value int/float size %x", arg)
		}
		return v.skip(arg + 1)
	case format.ValueLong, format.ValueDouble:
		return v.skip(arg + 1)
	case format.ValueString:
		return v.checkEncodedIndex(arg, "Bad encoded_value string size %x", v.hdr.StringIDs.Size, "encoded_value string")
	case format.ValueTypeIdx:
		return v.checkEncodedIndex(arg, "Bad encoded_value type size %x", v.hdr.TypeIDs.Size, "encoded_value type")
	case format.ValueField, format.ValueEnum:
		return v.checkEncodedIndex(arg, "Bad encoded_value field/enum size %x", v.hdr.FieldIDs.Size, "encoded_value field")
	case format.ValueMethod:
		return v.checkEncodedIndex(arg, "Bad encoded_value method size %x", v.hdr.MethodIDs.Size, "encoded_value method")
	case format.ValueArray:
		if arg != 0 {
			return v.failf(CategoryEncoding, "Bad encoded_value array value_arg %x", arg)
		}
		return v.checkEncodedArray(depth + 1)
	case format.ValueAnnotation:
		if arg != 0 {
			return v.failf(CategoryEncoding, "Bad encoded_value annotation value_arg %x", arg)
		}
		return v.checkEncodedAnnotation(depth + 1)
	case format.ValueNull:
		if arg != 0 {
			return v.failf(CategoryEncoding, "Bad encoded_value null value_arg %x", arg)
		}
		return nil
	case format.ValueBoolean:
		if arg > 1 {
			return v.failf(CategoryEncoding, "Bad encoded_value boolean size %x", arg)
		}
		return nil
	case format.ValueMethodType:
		return v.checkEncodedIndex(arg, "Bad encoded_value method type size %x", v.hdr.ProtoIDs.Size, "method_type value")
	case format.ValueMethodHandle:
		return v.checkEncodedIndex(arg, "Bad encoded_value method handle size %x", v.numMethodHandles, "method_handle value")
	}
	return v.failf(CategoryEncoding, "Bogus encoded_value value_type %x", uint8(typ))
}

// checkEncodedIndex reads an index-valued payload of at most four bytes and
// checks it against limit.
func (v *Verifier) checkEncodedIndex(arg uint32, sizeMsg string, limit uint32, label string) error {
	if arg > 3 {
		return v.failf(CategoryEncoding, sizeMsg, arg)
	}
	idx, err := v.readUnsignedLE(arg + 1)
	if err != nil {
		return err
	}
	return v.checkIndex(idx, limit, label)
}

// checkEncodedArray validates an encoded_array at the cursor.
func (v *Verifier) checkEncodedArray(depth int) error {
	size, err := v.readULEB()
	if err != nil {
		return err
	}
	for ; size != 0; size-- {
		if err := v.checkEncodedValue(depth); err != nil {
			return prefixed(err, "Bad encoded_array value: ")
		}
	}
	return nil
}

// checkEncodedAnnotation validates an encoded_annotation at the cursor:
// a type, then name/value pairs sorted by name index.
func (v *Verifier) checkEncodedAnnotation(depth int) error {
	typeIdx, err := v.readULEB()
	if err != nil {
		return err
	}
	if err := v.checkIndex(typeIdx, v.hdr.TypeIDs.Size, "encoded_annotation type_idx"); err != nil {
		return err
	}

	size, err := v.readULEB()
	if err != nil {
		return err
	}
	var last uint32
	for i := uint32(0); i < size; i++ {
		idx, err := v.readULEB()
		if err != nil {
			return err
		}
		if err := v.checkIndex(idx, v.hdr.StringIDs.Size, "annotation_element name_idx"); err != nil {
			return err
		}
		if i != 0 && last >= idx {
			return v.failf(CategoryOrder, "Out-of-order annotation_element name_idx: %x then %x", last, idx)
		}
		if err := v.checkEncodedValue(depth); err != nil {
			return err
		}
		last = idx
	}
	return nil
}
