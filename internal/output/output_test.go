package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"restruct/internal/backend"
	"restruct/internal/disasm"
)

func TestWriteFunctionsJSON(t *testing.T) {
	dir := t.TempDir()
	records := []disasm.FuncRecord{
		{PC: "0x1000", Size: 8, Name: "main", Blocks: 1},
	}
	if err := WriteFunctionsJSON(dir, records); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "functions.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"name": "main"`) {
		t.Errorf("functions.json missing record:\n%s", data)
	}
}

func TestWritePseudo(t *testing.T) {
	dir := t.TempDir()
	be := backend.New()
	node := be.Structurize("libc::start", []disasm.Inst{
		{Addr: 0x1000, Raw: 0xD65F03C0, Size: 4, Text: "ret"},
	})

	if err := WritePseudo(dir, node, be); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "pseudo", "libc__start.txt"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "// libc::start @ 0x1000") {
		t.Errorf("missing header:\n%s", text)
	}
	if !strings.Contains(text, "ret") {
		t.Errorf("missing body:\n%s", text)
	}
}

func TestWriteDOT(t *testing.T) {
	dir := t.TempDir()
	if err := WriteDOT(dir, "f", "digraph f {}\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cfg", "f.dot")); err != nil {
		t.Fatal(err)
	}
}

func TestSafeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"ns::func<int>", "ns__func_int_"},
		{"dir/file", "dir/file"},
		{"a b", "a_b"},
	}
	for _, c := range cases {
		if got := safeName(c.in); got != c.want {
			t.Errorf("safeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
