package main

import (
	"flag"
	"fmt"
	"os"

	"restruct/internal/backend"
	"restruct/internal/disasm"
	"restruct/internal/output"
)

func cmdDecompile(args []string) error {
	fs := flag.NewFlagSet("decompile", flag.ExitOnError)
	bin := fs.String("bin", "", "path to ARM64 binary")
	outDir := fs.String("out", "", "output directory")
	base := fs.Uint64("base", 0, "load address for raw input")
	only := fs.String("func", "", "restrict to one function")
	limit := fs.Int("limit", 0, "max functions to decompile (0 = all)")
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
		return fmt.Errorf("no functions to decompile")
	}
	fmt.Fprintf(os.Stderr, "decompiling %d functions\n", len(funcs))

	be := backend.New()
	be.AddPass(backend.FlattenPass{})

	var edgeRecords []disasm.CallEdgeRecord
	for _, f := range funcs {
		be.Structurize(f.name, f.insts)

		for _, e := range disasm.ExtractCallEdges(f.insts, lookup) {
			rec := disasm.CallEdgeRecord{
				FromFunc: f.name,
				FromPC:   fmt.Sprintf("0x%x", e.FromPC),
				Kind:     e.Kind,
				Reg:      e.Reg,
			}
			if e.Kind == "bl" {
				if e.TargetName != "" {
					rec.Target = e.TargetName
				} else {
					rec.Target = fmt.Sprintf("0x%x", e.TargetPC)
				}
			}
			edgeRecords = append(edgeRecords, rec)
		}
	}
	be.Run()

	var funcRecords []disasm.FuncRecord
	for _, node := range be.Nodes() {
		if err := output.WritePseudo(*outDir, node, be); err != nil {
			return fmt.Errorf("write pseudo %s: %w", node.Name, err)
		}
		cfg := disasm.BuildCFG(node.Name, node.Insts)
		funcRecords = append(funcRecords, disasm.FuncRecord{
			PC:     fmt.Sprintf("0x%x", node.Addr),
			Size:   len(node.Insts) * 4,
			Name:   node.Name,
			Blocks: len(cfg.Blocks),
		})
	}

	if err := output.WriteFunctionsJSON(*outDir, funcRecords); err != nil {
		return err
	}
	if err := output.WriteCallEdgesJSON(*outDir, edgeRecords); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %d functions, %d call edges\n",
		len(funcRecords), len(edgeRecords))
	return nil
}
