package render

// Theme holds colors for CFG rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by edge kind.
	EdgeTaken  string // taken side of a conditional branch
	EdgeFall   string // fallthrough side of a conditional branch
	EdgeDirect string // unconditional flow

	// Node accents.
	EntryBorder   string // function entry block
	SyntheticFill string // redirector and folded blocks
	TermFill      string // terminating blocks
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeTaken:  "#0B3D91", // NASA blue
	EdgeFall:   "#FC3D21", // NASA red
	EdgeDirect: "#424242", // dark gray

	EntryBorder:   "#0B3D91",
	SyntheticFill: "#ECEFF1", // blue-gray 50
	TermFill:      "#ECEFF1",
}
