package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"restruct/internal/disasm"
	"restruct/internal/elfx"
)

// function is one unit of code to structurize.
type function struct {
	name  string
	insts []disasm.Inst
}

// loadFunctions reads an ARM64 binary and splits it into functions. ELF
// inputs are split at function symbols; anything else is treated as raw code
// loaded at base and becomes a single function named after the file.
func loadFunctions(path string, base uint64, maxSteps int) ([]function, disasm.SymbolLookup, error) {
	ef, err := elfx.Open(path)
	if err != nil {
		if errors.Is(err, elfx.ErrNotELF) {
			return loadRaw(path, base, maxSteps)
		}
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer ef.Close()

	// The decoder reads little-endian words only.
	if ef.ByteOrder() != binary.LittleEndian {
		return nil, nil, fmt.Errorf("big-endian ELF not supported")
	}

	data, textVA, err := ef.Text()
	if err != nil {
		return nil, nil, fmt.Errorf("text: %w", err)
	}
	insts := disasm.Disassemble(data, disasm.Options{BaseAddr: textVA, MaxSteps: maxSteps})
	textEnd := textVA + uint64(len(insts)*4)

	symbols := make(map[uint64]string)
	var inText []elfx.Func
	for _, fn := range ef.Functions() {
		symbols[fn.Addr] = fn.Name
		if fn.Addr >= textVA && fn.Addr < textEnd {
			inText = append(inText, fn)
		}
	}
	lookup := disasm.PlaceholderLookup(symbols)

	if len(inText) == 0 {
		// Stripped binary: structurize the whole text region as one unit.
		return []function{{name: "text", insts: insts}}, lookup, nil
	}

	var funcs []function
	for i, fn := range inText {
		start := int((fn.Addr - textVA) / 4)
		end := len(insts)
		if fn.Size > 0 {
			end = start + int(fn.Size/4)
		} else if i+1 < len(inText) {
			end = int((inText[i+1].Addr - textVA) / 4)
		}
		if start >= len(insts) {
			continue
		}
		if end > len(insts) {
			end = len(insts)
		}
		if end <= start {
			continue
		}
		funcs = append(funcs, function{name: fn.Name, insts: insts[start:end]})
	}
	return funcs, lookup, nil
}

func loadRaw(path string, base uint64, maxSteps int) ([]function, disasm.SymbolLookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	insts := disasm.Disassemble(data, disasm.Options{BaseAddr: base, MaxSteps: maxSteps})
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []function{{name: name, insts: insts}}, nil, nil
}

// selectFunctions applies the --func and --limit flags.
func selectFunctions(funcs []function, only string, limit int) []function {
	if only != "" {
		for _, f := range funcs {
			if f.name == only {
				return []function{f}
			}
		}
		return nil
	}
	if limit > 0 && len(funcs) > limit {
		return funcs[:limit]
	}
	return funcs
}
