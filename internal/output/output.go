// Package output writes decompilation results to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"restruct/internal/backend"
	"restruct/internal/disasm"
)

// WriteFunctionsJSON writes the per-function index to functions.json.
func WriteFunctionsJSON(dir string, records []disasm.FuncRecord) error {
	return writeJSON(filepath.Join(dir, "functions.json"), records)
}

// WriteCallEdgesJSON writes extracted call sites to call_edges.json.
func WriteCallEdgesJSON(dir string, records []disasm.CallEdgeRecord) error {
	return writeJSON(filepath.Join(dir, "call_edges.json"), records)
}

// WritePseudo writes a structurized function as pseudocode to
// pseudo/<name>.txt. name may contain path separators for directory grouping.
func WritePseudo(dir string, node *backend.FunctionNode, b *backend.Backend) error {
	path := filepath.Join(dir, "pseudo", safeName(node.Name)+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir pseudo: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "// %s @ 0x%x\n", node.Name, node.Addr)
	sb.WriteString(b.Context().Print(node.Body, node.Format))
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// WriteDOT writes a DOT graph to cfg/<name>.dot.
func WriteDOT(dir, name, dot string) error {
	path := filepath.Join(dir, "cfg", safeName(name)+".dot")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir cfg: %w", err)
	}
	return os.WriteFile(path, []byte(dot), 0644)
}

// WriteASM writes disassembled instructions to asm/<name>.txt.
func WriteASM(dir string, name string, insts []disasm.Inst, lookup disasm.SymbolLookup, annotators ...disasm.Annotator) error {
	path := filepath.Join(dir, "asm", safeName(name)+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir asm: %w", err)
	}

	text := disasm.Format(insts, lookup, annotators...)
	return os.WriteFile(path, []byte(text), 0644)
}

// safeName replaces filesystem-hostile rune sequences in symbol names. Path
// separators are kept so callers can group output into directories.
func safeName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c == '/' || c == '_' || c == '.' || c == '-':
			b.WriteRune(c)
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
