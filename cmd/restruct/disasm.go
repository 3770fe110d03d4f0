package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"restruct/internal/disasm"
	"restruct/internal/elfx"
	"restruct/internal/output"
)

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	bin := fs.String("bin", "", "path to ARM64 binary")
	outDir := fs.String("out", "", "output directory")
	base := fs.Uint64("base", 0, "load address for raw input")
	only := fs.String("func", "", "restrict to one function")
	limit := fs.Int("limit", 0, "max functions to disassemble (0 = all)")
	maxSteps := fs.Int("max-steps", 0, "global decode cap")
	vaddr := fs.Uint64("vaddr", 0, "disassemble a raw VA range instead of functions")
	count := fs.Int("count", 64, "instructions to decode with --vaddr")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bin == "" || *outDir == "" {
		return fmt.Errorf("--bin and --out are required")
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir out: %w", err)
	}
	if *vaddr != 0 {
		return disasmRange(*bin, *outDir, *vaddr, *count)
	}

	funcs, lookup, err := loadFunctions(*bin, *base, *maxSteps)
	if err != nil {
		return err
	}
	funcs = selectFunctions(funcs, *only, *limit)
	if len(funcs) == 0 {
		return fmt.Errorf("no functions to disassemble")
	}

	annotate := disasm.CallAnnotator(lookup)
	for _, f := range funcs {
		if err := output.WriteASM(*outDir, f.name, f.insts, lookup, annotate); err != nil {
			return fmt.Errorf("write asm %s: %w", f.name, err)
		}
	}

	fmt.Fprintf(os.Stderr, "wrote %d listings\n", len(funcs))
	return nil
}

// disasmRange lists an arbitrary virtual address range of an ELF binary,
// useful for code outside any function symbol.
func disasmRange(bin, outDir string, va uint64, count int) error {
	ef, err := elfx.Open(bin)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer ef.Close()
	if ef.ByteOrder() != binary.LittleEndian {
		return fmt.Errorf("big-endian ELF not supported")
	}

	data, err := ef.ReadBytesAtVA(va, count*4)
	if err != nil {
		return fmt.Errorf("read 0x%x: %w", va, err)
	}
	insts := disasm.Disassemble(data, disasm.Options{BaseAddr: va})
	name := fmt.Sprintf("0x%x", va)
	if err := output.WriteASM(outDir, name, insts, nil, disasm.CallAnnotator(nil)); err != nil {
		return fmt.Errorf("write asm %s: %w", name, err)
	}

	fmt.Fprintf(os.Stderr, "wrote %d instructions at 0x%x\n", len(insts), va)
	return nil
}
