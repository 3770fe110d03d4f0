package main

import (
	"flag"
	"fmt"
	"os"

	"restruct/internal/ast"
	"restruct/internal/disasm"
	"restruct/internal/flow"
	"restruct/internal/output"
	"restruct/internal/render"
)

func cmdCFG(args []string) error {
	fs := flag.NewFlagSet("cfg", flag.ExitOnError)
	bin := fs.String("bin", "", "path to ARM64 binary")
	outDir := fs.String("out", "", "output directory")
	base := fs.Uint64("base", 0, "load address for raw input")
	only := fs.String("func", "", "restrict to one function")
	limit := fs.Int("limit", 0, "max functions to render (0 = all)")
	normalize := fs.Bool("normalize", false, "render the loop-normalized block graph")
	useLattice := fs.Bool("lattice", false, "render through the lattice converter")
	maxSteps := fs.Int("max-steps", 0, "global decode cap")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bin == "" || *outDir == "" {
		return fmt.Errorf("--bin and --out are required")
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir out: %w", err)
	}

	funcs, lookup, err := loadFunctions(*bin, *base, *maxSteps)
	if err != nil {
		return err
	}
	funcs = selectFunctions(funcs, *only, *limit)
	if len(funcs) == 0 {
		return fmt.Errorf("no functions to render")
	}

	written := 0
	for _, f := range funcs {
		cfg := disasm.BuildCFG(f.name, f.insts)
		if len(cfg.Blocks) < 2 {
			continue // single-block functions make trivial graphs
		}

		var dot string
		switch {
		case *normalize:
			ctx := ast.NewContext()
			g := flow.FromCFG(&cfg, ctx)
			g.Normalize(ctx)
			dot = render.FlowDOT(g, ctx, render.NASA)
		case *useLattice:
			edges := disasm.ExtractCallEdges(f.insts, lookup)
			dot = render.LatticeDOT(render.ToLattice(&cfg, edges), f.name)
		default:
			dot = render.CFGDOT(cfg, render.NASA)
		}

		if err := output.WriteDOT(*outDir, f.name, dot); err != nil {
			return fmt.Errorf("write dot %s: %w", f.name, err)
		}
		written++
	}

	fmt.Fprintf(os.Stderr, "wrote %d graphs\n", written)
	return nil
}
