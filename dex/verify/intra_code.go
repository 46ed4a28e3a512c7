package verify

import (
	"slices"

	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

func (v *Verifier) checkIntraCodeItem() error {
	if v.hdr.Compact {
		return v.failf(CategoryPolicy, "compact dex code items are not supported")
	}
	if err := v.checkListSize(v.ptr, 1, format.CodeItemHeaderSize, "code"); err != nil {
		return err
	}
	code := format.ReadCodeItem(v.data, v.ptr)

	if code.InsSize > code.RegistersSize {
		return v.failf(CategoryBounds, "ins_size (%d) > registers_size (%d)", code.InsSize, code.RegistersSize)
	}
	// Up to five outgoing arguments are allowed regardless of frame size.
	if code.OutsSize > 5 && code.OutsSize > code.RegistersSize {
		return v.failf(CategoryBounds, "outs_size (%d) > registers_size (%d)", code.OutsSize, code.RegistersSize)
	}

	insns := v.ptr + format.CodeItemHeaderSize
	if err := v.checkListSize(insns, uint64(code.InsnsSize), 2, "insns size"); err != nil {
		return err
	}
	insnsEnd := insns + 2*int(code.InsnsSize)

	if code.TriesSize == 0 {
		v.ptr = insnsEnd
		return nil
	}

	if insnsEnd&3 != 0 {
		if err := v.checkListSize(insnsEnd, 1, 2, "insns padding"); err != nil {
			return err
		}
		if pad := buf.U16At(v.data, insnsEnd); pad != 0 {
			v.ptr = insnsEnd
			return v.failf(CategoryAlignment, "Non-zero padding: %x", pad)
		}
	}

	tries := format.Align4(insnsEnd)
	if err := v.checkListSize(tries, uint64(code.TriesSize), format.TryItemSize, "try_items size"); err != nil {
		return err
	}

	handlersBase := tries + int(code.TriesSize)*format.TryItemSize
	v.ptr = handlersBase
	handlersSize, err := v.readULEB()
	if err != nil {
		return err
	}
	if handlersSize == 0 || handlersSize >= format.MaxHandlers {
		return v.failf(CategoryBounds, "Invalid handlers_size: %d", handlersSize)
	}

	handlerOffsets, err := v.checkAndGetHandlerOffsets(handlersBase, handlersSize, code.InsnsSize)
	if err != nil {
		return err
	}

	var lastAddr uint32
	for i := 0; i < int(code.TriesSize); i++ {
		try := format.ReadTryItem(v.data, tries+i*format.TryItemSize)
		if try.StartAddr < lastAddr {
			return v.failf(CategoryOrder, "Out-of_order try_item with start_addr: %x", try.StartAddr)
		}
		if try.StartAddr >= code.InsnsSize {
			return v.failf(CategoryBounds, "Invalid try_item start_addr: %x", try.StartAddr)
		}
		if !slices.Contains(handlerOffsets, uint32(try.HandlerOff)) {
			return v.failf(CategoryReference, "Bogus handler offset: %x", try.HandlerOff)
		}
		lastAddr = try.StartAddr + uint32(try.InsnCount)
		if lastAddr > code.InsnsSize {
			return v.failf(CategoryBounds, "Invalid try_item insn_count: %x", try.InsnCount)
		}
	}
	return nil
}

// checkAndGetHandlerOffsets validates count encoded_catch_handlers at the
// cursor and returns each one's offset relative to base.
func (v *Verifier) checkAndGetHandlerOffsets(base int, count, insnsSize uint32) ([]uint32, error) {
	hint := int(count)
	if avail := len(v.data) - v.ptr; avail < hint {
		hint = avail
	}
	offsets := make([]uint32, 0, max(hint, 0))

	for i := uint32(0); i < count; i++ {
		offset := uint32(v.ptr - base)
		size, err := v.readSLEB()
		if err != nil {
			return nil, err
		}
		if size < -format.MaxHandlers || size > format.MaxHandlers {
			return nil, v.failf(CategoryBounds, "Invalid exception handler size: %d", size)
		}
		catchAll := size <= 0
		if catchAll {
			size = -size
		}
		offsets = append(offsets, offset)

		for ; size > 0; size-- {
			typeIdx, err := v.readULEB()
			if err != nil {
				return nil, err
			}
			if err := v.checkIndex(typeIdx, v.hdr.TypeIDs.Size, "handler type_idx"); err != nil {
				return nil, err
			}
			addr, err := v.readULEB()
			if err != nil {
				return nil, err
			}
			if addr >= insnsSize {
				return nil, v.failf(CategoryBounds, "Invalid handler addr: %x", addr)
			}
		}

		if catchAll {
			addr, err := v.readULEB()
			if err != nil {
				return nil, err
			}
			if addr >= insnsSize {
				return nil, v.failf(CategoryBounds, "Invalid handler catch_all_addr: %x", addr)
			}
		}
	}
	return offsets, nil
}
