package source

import (
	"bytes"
	"slices"
	"sort"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NormalizeContent prepares raw bytes for line indexing: UTF-16 input (by
// BOM) is transcoded to UTF-8, a UTF-8 BOM is stripped, and CRLF pairs are
// collapsed to LF. The returned flags record what happened so callers can
// surface it.
func NormalizeContent(content []byte) ([]byte, FileFlags, error) {
	flags := FileFlags(0)

	if decoded, ok, err := decodeUTF16(content); err != nil {
		return nil, 0, err
	} else if ok {
		content = decoded
		flags |= FileDecodedUTF16
	}

	if bytes.HasPrefix(content, bomUTF8) {
		content = content[len(bomUTF8):]
		flags |= FileHadBOM
	}

	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return content, flags, nil
}

// decodeUTF16 transcodes UTF-16 content (detected by BOM) to UTF-8.
// Content without a UTF-16 BOM is returned unchanged.
func decodeUTF16(content []byte) ([]byte, bool, error) {
	var endian unicode.Endianness
	switch {
	case bytes.HasPrefix(content, bomUTF16LE):
		endian = unicode.LittleEndian
	case bytes.HasPrefix(content, bomUTF16BE):
		endian = unicode.BigEndian
	default:
		return content, false, nil
	}
	dec := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, content)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// normalizeCRLF replaces every \r\n with \n, leaving lone \r untouched.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}
	out := make([]byte, 0, len(content))
	changed := false
	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, 64)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

// Len returns the total content length in bytes.
func (f *File) Len() uint32 {
	return uint32(len(f.Content))
}

// LineCount returns the number of lines. A file always has at least one
// line; a trailing newline starts a final empty line.
func (f *File) LineCount() uint32 {
	return uint32(len(f.LineIdx)) + 1
}

// LineOfOffset returns the 0-based line containing the byte at off. The
// newline terminating a line belongs to that line. off == Len() is allowed
// and answers with the last line. Out-of-range offsets report !ok.
func (f *File) LineOfOffset(off uint32) (uint32, bool) {
	if off > f.Len() {
		return 0, false
	}
	// Number of newlines strictly before off.
	n := sort.Search(len(f.LineIdx), func(i int) bool {
		return f.LineIdx[i] >= off
	})
	return uint32(n), true
}

// LineStart returns the byte offset where the 0-based line begins.
func (f *File) LineStart(line uint32) (uint32, bool) {
	if line >= f.LineCount() {
		return 0, false
	}
	if line == 0 {
		return 0, true
	}
	return f.LineIdx[line-1] + 1, true
}

// LineLen returns the length of the 0-based line in bytes, including the
// terminating newline when one is present.
func (f *File) LineLen(line uint32) (uint32, bool) {
	start, ok := f.LineStart(line)
	if !ok {
		return 0, false
	}
	if line < uint32(len(f.LineIdx)) {
		return f.LineIdx[line] + 1 - start, true
	}
	return f.Len() - start, true
}

// GetLine returns the text of the 0-based line without its terminator.
// Out-of-range lines answer with an empty string.
func (f *File) GetLine(line uint32) string {
	start, ok := f.LineStart(line)
	if !ok {
		return ""
	}
	length, _ := f.LineLen(line)
	end := start + length
	if end > start && f.Content[end-1] == '\n' {
		end--
	}
	return string(f.Content[start:end])
}

// toLineCol converts a byte offset into a 1-based line/column pair.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	n := sort.Search(len(lineIdx), func(i int) bool {
		return lineIdx[i] >= off
	})
	var startOff uint32
	if n > 0 {
		startOff = lineIdx[n-1] + 1
	}
	return LineCol{Line: uint32(n) + 1, Col: off - startOff + 1}
}
