package folding

import (
	"crease/internal/progress"
	"crease/internal/syntax"
)

// Text is the line-indexed view of the buffer the tree was parsed from.
// *source.File satisfies it. Lines are 0-based; LineLen includes the
// terminating newline when present. The ok results let a stale tree over an
// edited buffer degrade to skipped nodes instead of failures.
type Text interface {
	Len() uint32
	LineCount() uint32
	LineOfOffset(off uint32) (uint32, bool)
	LineStart(line uint32) (uint32, bool)
	LineLen(line uint32) (uint32, bool)
}

// Options configures one extraction.
type Options struct {
	// Policy decides foldability. With a nil policy nothing folds.
	Policy Policy
	// InitialCollapse marks regions whose nodes the policy collapses by
	// default. True only for the first fold computation after a document
	// opens; recomputations pass false so user toggles survive.
	InitialCollapse bool
	// Monitor carries cancellation and progress. Nil is valid.
	Monitor *progress.Monitor
}

// Extract walks the tree depth-first and returns the foldable regions.
//
// A buffer with at most one line yields nothing: there is nothing to
// collapse. A nil root means no parse is available yet; that is an empty
// result, not an error. Cancellation truncates the result to whatever was
// collected, which callers must treat as a valid partial answer.
func Extract(root syntax.Node, text Text, opts Options) (map[RegionID]Region, Stats) {
	w := &walker{
		text:    text,
		policy:  opts.Policy,
		initial: opts.InitialCollapse,
		out:     make(map[RegionID]Region),
		claimed: make(map[uint32]struct{}),
	}
	if root == nil || text == nil || text.LineCount() <= 1 || w.policy == nil {
		return w.out, w.stats
	}
	w.walk(root, opts.Monitor)
	return w.out, w.stats
}

type walker struct {
	text    Text
	policy  Policy
	initial bool

	out       map[RegionID]Region
	claimed   map[uint32]struct{} // start lines already owning a region
	nextID    RegionID
	stats     Stats
	cancelled bool
}

// extendedChildren returns the structural children, plus — for the root —
// its comment nodes appended after them. Comments are folded as siblings of
// the last real child, never nested under another node.
func extendedChildren(node syntax.Node) []syntax.Node {
	children := node.Children()
	root, ok := node.(syntax.Root)
	if !ok {
		return children
	}
	comments := root.Comments()
	if len(comments) == 0 {
		return children
	}
	combined := make([]syntax.Node, 0, len(children)+len(comments))
	combined = append(combined, children...)
	combined = append(combined, comments...)
	return combined
}

func (w *walker) walk(node syntax.Node, mon *progress.Monitor) {
	children := extendedChildren(node)
	sub := progress.Convert(mon, 2*len(children))
	defer sub.Done()
	for _, child := range children {
		if w.cancelled || sub.Cancelled() {
			w.cancelled = true
			w.stats.Cancelled = true
			return
		}
		if w.policy.Foldable(child) {
			w.emit(child)
		}
		if w.policy.TraverseInto(child) {
			w.walk(child, sub.Child(1))
		}
		sub.Worked(1)
	}
}

// emit produces a region for a foldable node, applying the line rules:
// first claim on a start line wins, single-line spans are skipped, and the
// end offset is normalized to the end of the end line so the fold boundary
// looks clean in the editor.
func (w *walker) emit(node syntax.Node) {
	span := node.Span()
	startLine, ok := w.text.LineOfOffset(span.Start)
	if !ok {
		w.stats.BadMappings++
		return
	}
	if _, taken := w.claimed[startLine]; taken {
		return
	}
	endLine, ok := w.text.LineOfOffset(span.LastOffset())
	if !ok {
		w.stats.BadMappings++
		return
	}
	if endLine == startLine {
		return
	}
	lineStart, okStart := w.text.LineStart(endLine)
	lineLen, okLen := w.text.LineLen(endLine)
	if !okStart || !okLen {
		w.stats.BadMappings++
		return
	}
	end := lineStart + lineLen
	if limit := w.text.Len(); end > limit {
		end = limit
	}
	if end <= span.Start {
		return
	}
	w.claimed[startLine] = struct{}{}
	w.out[w.nextID] = Region{
		Start:     span.Start,
		End:       end,
		Collapsed: w.initial && w.policy.CollapsedByDefault(node),
	}
	w.nextID++
}
