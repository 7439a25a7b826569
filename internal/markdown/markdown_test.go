package markdown

import (
	"strings"
	"testing"

	"crease/internal/folding"
	"crease/internal/source"
	"crease/internal/syntax"
)

func parseDoc(t *testing.T, flavor Flavor, text string) (*source.File, *syntax.TreeRoot) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("doc.md", []byte(text)))
	return f, New(flavor).Build(f)
}

// regionLines maps a region onto 0-based start/end lines.
func regionLines(t *testing.T, f *source.File, r folding.Region) (uint32, uint32) {
	t.Helper()
	start, ok := f.LineOfOffset(r.Start)
	if !ok {
		t.Fatalf("region start %d unmappable", r.Start)
	}
	end, ok := f.LineOfOffset(r.End - 1)
	if !ok {
		t.Fatalf("region end %d unmappable", r.End)
	}
	return start, end
}

func hasRegionAt(t *testing.T, f *source.File, regions map[folding.RegionID]folding.Region, startLine, endLine uint32) bool {
	t.Helper()
	for _, r := range regions {
		s, e := regionLines(t, f, r)
		if s == startLine && e == endLine {
			return true
		}
	}
	return false
}

const sampleDoc = `# Title

` + "```go" + `
func main() {
}
` + "```" + `

- item one
  continued
- item two

> quoted text
> more of the quote

<!-- a note
spanning two lines -->
`

func TestBuildAndFoldSampleDoc(t *testing.T) {
	f, root := parseDoc(t, FlavorCommonMark, sampleDoc)

	if len(root.Comments()) != 1 {
		t.Fatalf("expected 1 root comment node, got %d", len(root.Comments()))
	}
	regions, stats := folding.Extract(root, f, folding.Options{Policy: Policy()})
	if stats.BadMappings != 0 {
		t.Fatalf("unexpected bad mappings: %d", stats.BadMappings)
	}

	if !hasRegionAt(t, f, regions, 2, 5) {
		t.Fatalf("missing fence fold over lines 2-5: %v", folding.Sorted(regions))
	}
	if !hasRegionAt(t, f, regions, 7, 9) {
		t.Fatalf("missing list fold over lines 7-9: %v", folding.Sorted(regions))
	}
	if !hasRegionAt(t, f, regions, 11, 12) {
		t.Fatalf("missing quote fold over lines 11-12: %v", folding.Sorted(regions))
	}
	if !hasRegionAt(t, f, regions, 14, 15) {
		t.Fatalf("missing comment fold over lines 14-15: %v", folding.Sorted(regions))
	}
	if len(regions) != 4 {
		t.Fatalf("expected exactly 4 regions, got %d: %v", len(regions), folding.Sorted(regions))
	}
}

func TestHeadingsAndParagraphsDoNotFold(t *testing.T) {
	f, root := parseDoc(t, FlavorCommonMark, "# Title\n\nplain paragraph\nwith two lines\n")
	regions, _ := folding.Extract(root, f, folding.Options{Policy: Policy()})
	if len(regions) != 0 {
		t.Fatalf("prose must not fold, got %v", folding.Sorted(regions))
	}
}

func TestEmptyFenceStillCoversFenceLines(t *testing.T) {
	f, root := parseDoc(t, FlavorCommonMark, "```go\n```\ntrailing\n")
	regions, _ := folding.Extract(root, f, folding.Options{Policy: Policy()})
	if !hasRegionAt(t, f, regions, 0, 1) {
		t.Fatalf("empty fence must fold its two fence lines, got %v", folding.Sorted(regions))
	}
}

func TestUnclosedFenceRunsToEOF(t *testing.T) {
	f, root := parseDoc(t, FlavorCommonMark, "```go\ncode\nmore code")
	regions, _ := folding.Extract(root, f, folding.Options{Policy: Policy()})
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %v", folding.Sorted(regions))
	}
	r := folding.Sorted(regions)[0]
	if r.End != f.Len() {
		t.Fatalf("unclosed fence must clamp to EOF: end %d, len %d", r.End, f.Len())
	}
}

func TestGFMTableFolds(t *testing.T) {
	table := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	f, root := parseDoc(t, FlavorGFM, table)
	regions, _ := folding.Extract(root, f, folding.Options{Policy: Policy()})
	if !hasRegionAt(t, f, regions, 0, 2) {
		t.Fatalf("GFM table must fold lines 0-2, got %v", folding.Sorted(regions))
	}
}

func TestInitialCollapseForConfiguredKinds(t *testing.T) {
	f, root := parseDoc(t, FlavorCommonMark, sampleDoc)
	regions, _ := folding.Extract(root, f, folding.Options{
		Policy:          Policy(KindFence),
		InitialCollapse: true,
	})
	var collapsed, open int
	for _, r := range regions {
		if r.Collapsed {
			collapsed++
		} else {
			open++
		}
	}
	if collapsed != 1 {
		t.Fatalf("exactly the fence should collapse, got %d collapsed", collapsed)
	}
	if open != 3 {
		t.Fatalf("remaining regions should stay open, got %d", open)
	}
}

func TestKindByName(t *testing.T) {
	for _, name := range []string{"fence", "code", "quote", "list", "html", "comment", "table"} {
		if _, err := KindByName(name); err != nil {
			t.Fatalf("KindByName(%q): %v", name, err)
		}
	}
	_, err := KindByName("bogus")
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("error should name the offending kind: %v", err)
	}
}
