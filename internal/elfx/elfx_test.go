package elfx

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func findSample(t *testing.T, name string) string {
	t.Helper()
	// Walk up to find samples/ directory.
	dir, _ := os.Getwd()
	for {
		p := filepath.Join(dir, "samples", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Skipf("sample %s not found", name)
		}
		dir = parent
	}
}

func TestOpenValid(t *testing.T) {
	path := findSample(t, "sample-arm64.so")
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	if ef.FileSize() == 0 {
		t.Error("file size is 0")
	}
}

func TestOpenRejectsNonELF(t *testing.T) {
	// Create a temp file with garbage data.
	tmp := filepath.Join(t.TempDir(), "notelf")
	if err := os.WriteFile(tmp, []byte("not an ELF file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(tmp)
	if err == nil {
		t.Fatal("expected error for non-ELF file")
	}
}

func TestSymbolNotFound(t *testing.T) {
	path := findSample(t, "sample-arm64.so")
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	_, _, err = ef.Symbol("_kNonExistentSymbol")
	if err == nil {
		t.Fatal("expected error for missing symbol")
	}
}

func TestFunctionsSorted(t *testing.T) {
	path := findSample(t, "sample-arm64.so")
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	funcs := ef.Functions()
	for i := 1; i < len(funcs); i++ {
		if funcs[i].Addr < funcs[i-1].Addr {
			t.Fatalf("functions out of order at %d: 0x%x after 0x%x",
				i, funcs[i].Addr, funcs[i-1].Addr)
		}
	}
	for _, fn := range funcs {
		if fn.Name == "" {
			t.Error("unnamed function symbol returned")
		}
	}
}

func TestReadBytesAtVA(t *testing.T) {
	path := findSample(t, "sample-arm64.so")
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	data, va, err := ef.Text()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 {
		t.Skip("text section too small")
	}

	got, err := ef.ReadBytesAtVA(va, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 8 {
		t.Fatalf("read %d bytes, want 8", len(got))
	}
	for i := range got {
		if got[i] != data[i] {
			t.Fatalf("byte %d = 0x%02x, want 0x%02x", i, got[i], data[i])
		}
	}
}

func TestByteOrder(t *testing.T) {
	path := findSample(t, "sample-arm64.so")
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	if ef.ByteOrder() != binary.LittleEndian {
		t.Errorf("byte order = %v, want little-endian", ef.ByteOrder())
	}
}

func TestVAToFileOffsetInvalid(t *testing.T) {
	path := findSample(t, "sample-arm64.so")
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	_, err = ef.VAToFileOffset(0xDEADBEEFDEADBEEF)
	if err == nil {
		t.Fatal("expected error for invalid VA")
	}
}

func TestLoadSegments(t *testing.T) {
	path := findSample(t, "sample-arm64.so")
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	segs := ef.LoadSegments()
	if len(segs) == 0 {
		t.Fatal("no PT_LOAD segments")
	}
	for _, s := range segs {
		if s.Filesz == 0 && s.Memsz == 0 {
			t.Error("segment with zero size")
		}
	}
}

func FuzzELFOpen(f *testing.F) {
	// Seed with a valid ELF header prefix and garbage.
	f.Add([]byte("\x7fELF\x02\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	f.Add([]byte("not an elf at all"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		tmp := filepath.Join(t.TempDir(), "fuzz.so")
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			t.Fatal(err)
		}
		ef, err := Open(tmp)
		if err != nil {
			return // expected
		}
		// If it opens, exercise the API.
		ef.FileSize()
		ef.LoadSegments()
		ef.Functions()
		ef.VAToFileOffset(0)
		ef.Close()
	})
}
