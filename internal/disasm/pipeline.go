package disasm

// FuncRecord is one entry in functions.json.
type FuncRecord struct {
	PC     string `json:"pc"`
	Size   int    `json:"size"`
	Name   string `json:"name"`
	Blocks int    `json:"blocks,omitempty"`
}

// CallEdgeRecord is one entry in call_edges.json.
type CallEdgeRecord struct {
	FromFunc string `json:"from_func"`
	FromPC   string `json:"from_pc"`
	Kind     string `json:"kind"`             // "bl" or "blr"
	Target   string `json:"target,omitempty"` // resolved name or "0x..." for bl
	Reg      string `json:"reg,omitempty"`    // "X16" etc for blr
}
