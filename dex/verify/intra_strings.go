package verify

import "github.com/joshuapare/dexkit/internal/format"

// checkIntraStringDataItem validates a string_data_item: a ULEB128 UTF-16
// length followed by exactly that many modified UTF-8 characters and a NUL.
func (v *Verifier) checkIntraStringDataItem() error {
	size, err := v.readULEB()
	if err != nil {
		return err
	}
	end := len(v.data)

	for i := uint32(0); i < size; i++ {
		if v.ptr >= end {
			return v.failf(CategoryBounds, "String data would go beyond end-of-file")
		}
		one := v.data[v.ptr]
		v.ptr++

		switch one >> 4 {
		case 0x00:
			// NUL is encoded as c0 80; a raw zero ends the string early.
			if one == 0 {
				return v.failf(CategoryEncoding, "String data shorter than indicated utf16_size %x", size)
			}
		case 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07:
		case 0x08, 0x09, 0x0a, 0x0b, 0x0f:
			return v.failf(CategoryEncoding, "Illegal start byte %x in string data", one)
		case 0x0c, 0x0d:
			two, err := v.continuation()
			if err != nil {
				return err
			}
			value := uint32(one&0x1f)<<6 | uint32(two&0x3f)
			if value != 0 && value < 0x80 {
				return v.failf(CategoryEncoding, "Illegal representation for value %x in string data", value)
			}
		case 0x0e:
			two, err := v.continuation()
			if err != nil {
				return err
			}
			three, err := v.continuation()
			if err != nil {
				return err
			}
			value := uint32(one&0x0f)<<12 | uint32(two&0x3f)<<6 | uint32(three&0x3f)
			if value < 0x800 {
				return v.failf(CategoryEncoding, "Illegal representation for value %x in string data", value)
			}
		}
	}

	if v.ptr >= end || v.data[v.ptr] != 0 {
		return v.failf(CategoryEncoding, "String longer than indicated size %x", size)
	}
	v.ptr++
	return nil
}

// continuation reads one 10xxxxxx byte.
func (v *Verifier) continuation() (byte, error) {
	if v.ptr >= len(v.data) {
		return 0, v.failf(CategoryBounds, "String data would go beyond end-of-file")
	}
	c := v.data[v.ptr]
	if c&0xc0 != 0x80 {
		return 0, v.failf(CategoryEncoding, "Illegal continuation byte %x in string data", c)
	}
	v.ptr++
	return c, nil
}

// checkIntraDebugInfoItem validates a debug_info_item's parameter names and
// runs its state-machine opcodes to DBG_END_SEQUENCE, range-checking every
// register, string and type operand.
func (v *Verifier) checkIntraDebugInfoItem() error {
	if _, err := v.readULEB(); err != nil { // line_start
		return err
	}
	params, err := v.readULEB()
	if err != nil {
		return err
	}
	if params > format.MaxRegisters {
		return v.failf(CategoryBounds, "Invalid parameters_size: %x", params)
	}
	for i := uint32(0); i < params; i++ {
		if err := v.checkOptionalIndex(v.hdr.StringIDs.Size, "debug_info_item parameter_name"); err != nil {
			return err
		}
	}

	for {
		if err := v.checkListSize(v.ptr, 1, 1, "debug_info opcode"); err != nil {
			return err
		}
		opcode := v.data[v.ptr]
		v.ptr++

		switch opcode {
		case format.DbgEndSequence:
			return nil
		case format.DbgAdvancePC:
			if _, err := v.readULEB(); err != nil {
				return err
			}
		case format.DbgAdvanceLine:
			if _, err := v.readSLEB(); err != nil {
				return err
			}
		case format.DbgStartLocal:
			if err := v.checkDebugRegister(opcode); err != nil {
				return err
			}
			if err := v.checkOptionalIndex(v.hdr.StringIDs.Size, "DBG_START_LOCAL name_idx"); err != nil {
				return err
			}
			if err := v.checkOptionalIndex(v.hdr.TypeIDs.Size, "DBG_START_LOCAL type_idx"); err != nil {
				return err
			}
		case format.DbgEndLocal, format.DbgRestartLocal:
			if err := v.checkDebugRegister(opcode); err != nil {
				return err
			}
		case format.DbgStartLocalExtended:
			if err := v.checkDebugRegister(opcode); err != nil {
				return err
			}
			if err := v.checkOptionalIndex(v.hdr.StringIDs.Size, "DBG_START_LOCAL_EXTENDED name_idx"); err != nil {
				return err
			}
			if err := v.checkOptionalIndex(v.hdr.TypeIDs.Size, "DBG_START_LOCAL_EXTENDED type_idx"); err != nil {
				return err
			}
			if err := v.checkOptionalIndex(v.hdr.StringIDs.Size, "DBG_START_LOCAL_EXTENDED sig_idx"); err != nil {
				return err
			}
		case format.DbgSetFile:
			if err := v.checkOptionalIndex(v.hdr.StringIDs.Size, "DBG_SET_FILE name_idx"); err != nil {
				return err
			}
		}
	}
}

func (v *Verifier) checkDebugRegister(opcode byte) error {
	reg, err := v.readULEB()
	if err != nil {
		return err
	}
	if reg >= format.MaxRegisters {
		return v.failf(CategoryBounds, "Bad reg_num for opcode %x", opcode)
	}
	return nil
}

// checkOptionalIndex reads a uleb128p1 index; zero encodes "no index".
func (v *Verifier) checkOptionalIndex(limit uint32, label string) error {
	val, err := v.readULEB()
	if err != nil {
		return err
	}
	if val == 0 {
		return nil
	}
	return v.checkIndex(val-1, limit, label)
}
