package verify

import (
	"fmt"

	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

// checkHeader validates the header fields against the file: size, checksum,
// endianness and the placement of every section the header describes.
func (v *Verifier) checkHeader() error {
	h := &v.hdr
	size := uint64(len(v.data))

	if uint64(h.FileSize) != size {
		return v.failf(CategoryBounds, "Bad file size (%d, expected %d)", size, h.FileSize)
	}

	if sum := format.ComputeChecksum(v.data); sum != h.Checksum {
		if v.opts.VerifyChecksum {
			return v.failf(CategoryIntegrity, "Bad checksum (%08x, expected %08x)", sum, h.Checksum)
		}
		v.warn(fmt.Sprintf("Ignoring bad checksum (%08x, expected %08x)", sum, h.Checksum))
	}

	if h.EndianTag != format.EndianConstant {
		return v.failf(CategoryEncoding, "Unexpected endian_tag: %x", h.EndianTag)
	}

	if want := h.ExpectedHeaderSize(); h.HeaderSize != want {
		return v.failf(CategoryBounds, "Bad header size: %d expected %d", h.HeaderSize, want)
	}

	checks := []struct {
		off, size, align uint32
		label            string
	}{
		{h.Link.Offset, h.Link.Size, 0, "link"},
		{h.MapOff, h.MapOff, 4, "map"},
		{h.StringIDs.Offset, h.StringIDs.Size, 4, "string-ids"},
		{h.TypeIDs.Offset, h.TypeIDs.Size, 4, "type-ids"},
		{h.ProtoIDs.Offset, h.ProtoIDs.Size, 4, "proto-ids"},
		{h.FieldIDs.Offset, h.FieldIDs.Size, 4, "field-ids"},
		{h.MethodIDs.Offset, h.MethodIDs.Size, 4, "method-ids"},
		{h.ClassDefs.Offset, h.ClassDefs.Size, 4, "class-defs"},
		{h.Data.Offset, h.Data.Size, 0, "data"},
	}
	for _, c := range checks {
		if err := v.checkValidOffsetAndSize(c.off, c.size, c.align, c.label); err != nil {
			return err
		}
		switch c.label {
		case "type-ids", "proto-ids":
			if err := v.checkSizeLimit(c.size, format.TypeIDLimit, c.label); err != nil {
				return err
			}
		}
	}

	// Every table and the data section must fit in the file. Later stages
	// index into them directly.
	fits := []struct {
		sec   format.Section
		elem  uint64
		label string
	}{
		{h.Link, 1, "link"},
		{h.StringIDs, format.StringIDSize, "string-ids"},
		{h.TypeIDs, format.TypeIDSize, "type-ids"},
		{h.ProtoIDs, format.ProtoIDSize, "proto-ids"},
		{h.FieldIDs, format.FieldIDSize, "field-ids"},
		{h.MethodIDs, format.MethodIDSize, "method-ids"},
		{h.ClassDefs, format.ClassDefSize, "class-defs"},
		{h.Data, 1, "data"},
	}
	for _, f := range fits {
		if f.sec.Size == 0 {
			continue
		}
		if !buf.FitsList(uint64(f.sec.Offset), uint64(f.sec.Size), f.elem, size) {
			return v.failf(CategoryBounds, "Section %s extends beyond end of file: %x+%d*%d > %x",
				f.label, f.sec.Offset, f.sec.Size, f.elem, size)
		}
	}
	return nil
}

func (v *Verifier) checkValidOffsetAndSize(offset, size, alignment uint32, label string) error {
	if size == 0 {
		if offset != 0 {
			return v.failf(CategoryBounds, "Offset(%d) should be zero when size is zero for %s.", offset, label)
		}
	}
	if uint64(len(v.data)) <= uint64(offset) {
		return v.failf(CategoryBounds, "Offset(%d) should be within file size(%d) for %s.", offset, len(v.data), label)
	}
	if alignment != 0 && !format.IsAligned(offset, alignment) {
		return v.failf(CategoryAlignment, "Offset(%d) should be aligned by %d for %s.", offset, alignment, label)
	}
	return nil
}
