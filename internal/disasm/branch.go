package disasm

import "fmt"

// ARM64 branch instruction detection from raw 32-bit encoding.
// These functions identify basic-block terminators, extract branch targets,
// and label the condition under which a conditional branch is taken.

// condNames maps the B.cond condition field to its mnemonic suffix.
var condNames = [16]string{
	"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
	"hi", "ls", "ge", "lt", "gt", "le", "al", "nv",
}

// BranchInfo describes a decoded branch instruction.
type BranchInfo struct {
	Target uint64 // absolute target address (0 if RET)
	Cond   bool   // true if conditional (has fallthrough)
	IsRet  bool   // true if RET
	Label  string // condition under which the branch is taken ("" if unconditional)
}

// DecodeBranch attempts to decode a branch instruction from raw encoding at the given PC.
// Returns nil if the instruction is not a branch/ret.
func DecodeBranch(raw uint32, pc uint64) *BranchInfo {
	// RET (0xD65F03C0 exactly, or RET Xn = 0xD65F0000 | Rn<<5)
	if raw&0xFFFFFC1F == 0xD65F0000 {
		return &BranchInfo{IsRet: true}
	}

	// B (unconditional): 000101 imm26
	if raw&0xFC000000 == 0x14000000 {
		imm26 := raw & 0x03FFFFFF
		offset := signExtend(imm26, 26) * 4
		return &BranchInfo{Target: uint64(int64(pc) + int64(offset))}
	}

	// B.cond: 01010100 imm19 0 cond
	if raw&0xFF000010 == 0x54000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		offset := signExtend(imm19, 19) * 4
		return &BranchInfo{
			Target: uint64(int64(pc) + int64(offset)),
			Cond:   true,
			Label:  condNames[raw&0xF],
		}
	}

	// CBZ: 0 sf 110100 imm19 Rt
	if raw&0x7F000000 == 0x34000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		offset := signExtend(imm19, 19) * 4
		return &BranchInfo{
			Target: uint64(int64(pc) + int64(offset)),
			Cond:   true,
			Label:  regName(raw) + " == 0",
		}
	}

	// CBNZ: 0 sf 110101 imm19 Rt
	if raw&0x7F000000 == 0x35000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		offset := signExtend(imm19, 19) * 4
		return &BranchInfo{
			Target: uint64(int64(pc) + int64(offset)),
			Cond:   true,
			Label:  regName(raw) + " != 0",
		}
	}

	// TBZ: 0 b5 110110 b40 imm14 Rt
	if raw&0x7F000000 == 0x36000000 {
		imm14 := (raw >> 5) & 0x3FFF
		offset := signExtend(imm14, 14) * 4
		return &BranchInfo{
			Target: uint64(int64(pc) + int64(offset)),
			Cond:   true,
			Label:  fmt.Sprintf("%s & %#x == 0", regName(raw), uint64(1)<<testBit(raw)),
		}
	}

	// TBNZ: 0 b5 110111 b40 imm14 Rt
	if raw&0x7F000000 == 0x37000000 {
		imm14 := (raw >> 5) & 0x3FFF
		offset := signExtend(imm14, 14) * 4
		return &BranchInfo{
			Target: uint64(int64(pc) + int64(offset)),
			Cond:   true,
			Label:  fmt.Sprintf("%s & %#x != 0", regName(raw), uint64(1)<<testBit(raw)),
		}
	}

	return nil
}

// regName returns the Rt register name, sized by the sf bit.
func regName(raw uint32) string {
	rt := raw & 0x1F
	width := "w"
	if raw>>31 != 0 {
		width = "x"
	}
	if rt == 31 {
		return width + "zr"
	}
	return fmt.Sprintf("%s%d", width, rt)
}

// testBit returns the bit number tested by TBZ/TBNZ: b5:b40.
func testBit(raw uint32) uint32 {
	return (raw>>31)<<5 | (raw>>19)&0x1F
}

// signExtend sign-extends a value from the given bit width to int32.
func signExtend(val uint32, bits int) int32 {
	sign := uint32(1) << (bits - 1)
	mask := sign - 1
	if val&sign != 0 {
		return int32(val | ^mask) // negative
	}
	return int32(val & mask)
}

// IsBranchTerminator returns true if the instruction terminates a basic block.
// This includes all branches (B, B.cond, CBZ, CBNZ, TBZ, TBNZ, RET) but NOT BL/BLR
// (calls return to the next instruction).
func IsBranchTerminator(raw uint32) bool {
	return DecodeBranch(raw, 0) != nil
}
