package source

import (
	"testing"
)

func TestLineQueries(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("mem.md", []byte("alpha\nbeta\n\ngamma"), FileVirtual)
	f := fs.Get(id)

	if got := f.LineCount(); got != 4 {
		t.Fatalf("LineCount = %d, want 4", got)
	}
	if got := f.Len(); got != 16 {
		t.Fatalf("Len = %d, want 16", got)
	}

	tests := []struct {
		off  uint32
		line uint32
	}{
		{0, 0},  // 'a'
		{4, 0},  // 'a' of alpha end
		{5, 0},  // the newline belongs to its line
		{6, 1},  // 'b'
		{10, 1}, // newline after beta
		{11, 2}, // empty line's newline
		{12, 3}, // 'g'
		{16, 3}, // one past end is allowed
	}
	for _, tt := range tests {
		line, ok := f.LineOfOffset(tt.off)
		if !ok {
			t.Fatalf("LineOfOffset(%d) not ok", tt.off)
		}
		if line != tt.line {
			t.Fatalf("LineOfOffset(%d) = %d, want %d", tt.off, line, tt.line)
		}
	}

	if _, ok := f.LineOfOffset(17); ok {
		t.Fatalf("LineOfOffset past end should report !ok")
	}
	if _, ok := f.LineStart(4); ok {
		t.Fatalf("LineStart past last line should report !ok")
	}

	start, ok := f.LineStart(3)
	if !ok || start != 12 {
		t.Fatalf("LineStart(3) = %d,%v, want 12,true", start, ok)
	}
	length, ok := f.LineLen(0)
	if !ok || length != 6 {
		t.Fatalf("LineLen(0) = %d, want 6 (terminator included)", length)
	}
	length, ok = f.LineLen(3)
	if !ok || length != 5 {
		t.Fatalf("LineLen(3) = %d, want 5 (no trailing terminator)", length)
	}
	if got := f.GetLine(1); got != "beta" {
		t.Fatalf("GetLine(1) = %q, want %q", got, "beta")
	}
	if got := f.GetLine(9); got != "" {
		t.Fatalf("GetLine out of range = %q, want empty", got)
	}
}

func TestLineQueriesSingleLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.Add("one.md", []byte("no newline here"), FileVirtual))
	if got := f.LineCount(); got != 1 {
		t.Fatalf("LineCount = %d, want 1", got)
	}
	line, ok := f.LineOfOffset(7)
	if !ok || line != 0 {
		t.Fatalf("LineOfOffset(7) = %d,%v, want 0,true", line, ok)
	}
	length, ok := f.LineLen(0)
	if !ok || length != 15 {
		t.Fatalf("LineLen(0) = %d, want 15", length)
	}
}

func TestNormalizeContentCRLF(t *testing.T) {
	out, flags, err := NormalizeContent([]byte("a\r\nb\rc\r\n"))
	if err != nil {
		t.Fatalf("NormalizeContent: %v", err)
	}
	if string(out) != "a\nb\rc\n" {
		t.Fatalf("normalized = %q", out)
	}
	if flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected FileNormalizedCRLF flag")
	}
}

func TestNormalizeContentUTF8BOM(t *testing.T) {
	out, flags, err := NormalizeContent([]byte{0xEF, 0xBB, 0xBF, 'h', 'i'})
	if err != nil {
		t.Fatalf("NormalizeContent: %v", err)
	}
	if string(out) != "hi" {
		t.Fatalf("normalized = %q, want %q", out, "hi")
	}
	if flags&FileHadBOM == 0 {
		t.Fatalf("expected FileHadBOM flag")
	}
}

func TestNormalizeContentUTF16(t *testing.T) {
	// "ab\ncd" as UTF-16 LE with BOM.
	input := []byte{0xFF, 0xFE, 'a', 0, 'b', 0, '\n', 0, 'c', 0, 'd', 0}
	out, flags, err := NormalizeContent(input)
	if err != nil {
		t.Fatalf("NormalizeContent: %v", err)
	}
	if string(out) != "ab\ncd" {
		t.Fatalf("normalized = %q, want %q", out, "ab\ncd")
	}
	if flags&FileDecodedUTF16 == 0 {
		t.Fatalf("expected FileDecodedUTF16 flag")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("mem.md", []byte("one\ntwo\n"), FileVirtual)
	start, end := fs.Resolve(Span{File: id, Start: 4, End: 7})
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("start = %+v, want line 2 col 1", start)
	}
	if end.Line != 2 || end.Col != 4 {
		t.Fatalf("end = %+v, want line 2 col 4", end)
	}
}
