package disasm

import "fmt"

// CallEdge represents a call site extracted from disassembly.
type CallEdge struct {
	FromPC     uint64 `json:"from_pc"`
	Kind       string `json:"kind"`                // "bl" or "blr"
	TargetPC   uint64 `json:"target_pc,omitempty"` // resolved VA for bl
	TargetName string `json:"target_name,omitempty"`
	Reg        string `json:"reg,omitempty"` // register for blr (e.g. "X16")
}

// isBL detects ARM64 BL (branch with link) instructions.
// Encoding: 1 | 00101 | imm26
// Mask: 0xFC000000, Value: 0x94000000
// Returns the target address (sign-extended imm26 * 4 + PC).
func isBL(raw uint32, pc uint64) (target uint64, ok bool) {
	if raw&0xFC000000 != 0x94000000 {
		return 0, false
	}
	imm26 := int32(raw & 0x03FFFFFF)
	// Sign extend from 26 bits.
	if imm26&(1<<25) != 0 {
		imm26 |= ^int32(0x03FFFFFF)
	}
	target = uint64(int64(pc) + int64(imm26)*4)
	return target, true
}

// isBLR detects ARM64 BLR (branch with link to register) instructions.
// Encoding: 1101011 | 0 | 0 | 01 | 11111 | 0000 | 0 | 0 | Rn | 00000
// Mask: 0xFFFFFC1F, Value: 0xD63F0000
// Returns the register number.
func isBLR(raw uint32) (rn int, ok bool) {
	if raw&0xFFFFFC1F != 0xD63F0000 {
		return 0, false
	}
	rn = int((raw >> 5) & 0x1F)
	return rn, true
}

// ExtractCallEdges scans instructions for BL and BLR call sites.
// symbols resolves BL target addresses to names; indirect calls keep only
// their register.
func ExtractCallEdges(insts []Inst, symbols SymbolLookup) []CallEdge {
	var edges []CallEdge
	for _, inst := range insts {
		if target, ok := isBL(inst.Raw, inst.Addr); ok {
			e := CallEdge{
				FromPC:   inst.Addr,
				Kind:     "bl",
				TargetPC: target,
			}
			if symbols != nil {
				if name, found := symbols(target); found {
					e.TargetName = name
				}
			}
			edges = append(edges, e)
			continue
		}
		if rn, ok := isBLR(inst.Raw); ok {
			edges = append(edges, CallEdge{
				FromPC: inst.Addr,
				Kind:   "blr",
				Reg:    fmt.Sprintf("X%d", rn),
			})
		}
	}
	return edges
}

// CallAnnotator returns an Annotator that comments call instructions with
// their resolved target, for disassembly listings.
func CallAnnotator(symbols SymbolLookup) Annotator {
	return func(inst Inst) string {
		if target, ok := isBL(inst.Raw, inst.Addr); ok {
			if symbols != nil {
				if name, found := symbols(target); found {
					return fmt.Sprintf("call <%s>", name)
				}
			}
			return fmt.Sprintf("call 0x%x", target)
		}
		if rn, ok := isBLR(inst.Raw); ok {
			return fmt.Sprintf("indirect call via X%d", rn)
		}
		return ""
	}
}
