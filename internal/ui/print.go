package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"crease/internal/driver"
	"crease/internal/folding"
	"crease/internal/source"
)

var (
	pathStyle     = lipgloss.NewStyle().Bold(true)
	rangeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	collapseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// PrintResults writes a human-readable region listing for each result.
// Previews show the first line of each region, truncated to width.
func PrintResults(w io.Writer, fileSet *source.FileSet, results []driver.FileResult, width int) {
	if width <= 0 {
		width = 80
	}
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if res.Err != nil {
			fmt.Fprintf(w, "%s: %s\n", pathStyle.Render(res.Path), errStyle.Render(res.Err.Error()))
			continue
		}
		suffix := ""
		if res.FromCache {
			suffix = dimStyle.Render(" (cached)")
		}
		fmt.Fprintf(w, "%s: %d foldable %s%s\n",
			pathStyle.Render(res.Path), len(res.Regions), plural(len(res.Regions), "region", "regions"), suffix)

		f := fileSet.Get(res.FileID)
		for _, region := range res.Regions {
			printRegion(w, f, region, width)
		}
		if res.Stats.BadMappings > 0 {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("%d node(s) skipped: offsets outside the buffer", res.Stats.BadMappings)))
		}
	}
}

func printRegion(w io.Writer, f *source.File, region folding.Region, width int) {
	startLine, ok := f.LineOfOffset(region.Start)
	if !ok {
		return
	}
	// End points past the region, so the last covered line holds End-1.
	endLine, ok := f.LineOfOffset(region.End - 1)
	if !ok {
		endLine = startLine
	}

	lines := rangeStyle.Render(fmt.Sprintf("%4d..%-4d", startLine+1, endLine+1))
	mark := " "
	if region.Collapsed {
		mark = collapseStyle.Render("-")
	}

	preview := strings.TrimRight(f.GetLine(startLine), " \t")
	budget := width - 14
	if budget < 16 {
		budget = 16
	}
	if runewidth.StringWidth(preview) > budget {
		preview = runewidth.Truncate(preview, budget-3, "...")
	}
	fmt.Fprintf(w, "  %s %s %s\n", mark, lines, preview)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
