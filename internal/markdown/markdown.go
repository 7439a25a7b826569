// Package markdown binds goldmark's CommonMark/GFM parser to the folding
// engine: it adapts the goldmark AST to syntax nodes with byte offsets and
// supplies the markdown folding policy.
package markdown

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"

	"crease/internal/source"
	"crease/internal/syntax"
)

// Flavor selects the markdown dialect.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// Node kinds produced by this binding.
const (
	KindDocument  syntax.Kind = "md.document"
	KindHeading   syntax.Kind = "md.heading"
	KindParagraph syntax.Kind = "md.paragraph"
	KindFence     syntax.Kind = "md.fence"
	KindCode      syntax.Kind = "md.code"
	KindQuote     syntax.Kind = "md.quote"
	KindList      syntax.Kind = "md.list"
	KindItem      syntax.Kind = "md.item"
	KindHTML      syntax.Kind = "md.html"
	KindComment   syntax.Kind = "md.comment"
	KindTable     syntax.Kind = "md.table"
	KindBlock     syntax.Kind = "md.block"
)

// Binding owns a configured goldmark instance. It is safe for concurrent
// Build calls; goldmark parsers are stateless between documents.
type Binding struct {
	flavor Flavor
	md     goldmark.Markdown
}

// New creates a binding for the given flavor. Unknown flavors fall back to
// CommonMark.
func New(flavor Flavor) *Binding {
	var opts []goldmark.Option
	switch flavor {
	case FlavorGFM:
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	default:
		flavor = FlavorCommonMark
	}
	return &Binding{flavor: flavor, md: goldmark.New(opts...)}
}

// FlavorOf returns the configured flavor.
func (b *Binding) FlavorOf() Flavor { return b.flavor }

// Build parses the file and returns the folding syntax tree. Top-level HTML
// comment blocks are routed to the root's comment sequence; everything else
// becomes a structural child.
func (b *Binding) Build(f *source.File) *syntax.TreeRoot {
	reader := gtext.NewReader(f.Content)
	doc := b.md.Parser().Parse(reader)

	m := &mapper{file: f}
	root := syntax.NewRoot(KindDocument, f.ID, 0, f.Len())
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		node := m.mapBlock(c)
		if node == nil {
			continue
		}
		if node.Kind() == KindComment {
			root.AddComment(node)
		} else {
			root.Add(node)
		}
	}
	return root
}

type mapper struct {
	file *source.File
}

// extent is a byte range under construction; ok flips once any segment has
// been covered.
type extent struct {
	start, stop int
	ok          bool
}

func (e *extent) cover(start, stop int) {
	if stop <= start {
		return
	}
	if !e.ok {
		e.start, e.stop, e.ok = start, stop, true
		return
	}
	if start < e.start {
		e.start = start
	}
	if stop > e.stop {
		e.stop = stop
	}
}

func (m *mapper) mapBlock(n gast.Node) *syntax.TreeNode {
	kind := kindOf(n)

	var children []syntax.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != gast.TypeBlock {
			continue
		}
		if mapped := m.mapBlock(c); mapped != nil {
			children = append(children, mapped)
		}
	}

	var ext extent
	m.coverOwnLines(n, &ext)
	switch b := n.(type) {
	case *gast.FencedCodeBlock:
		m.coverFence(b, &ext)
	case *gast.HTMLBlock:
		if b.HasClosure() {
			seg := b.ClosureLine
			ext.cover(seg.Start, seg.Stop)
		}
	}
	if !ext.ok {
		// Containers (lists, quotes, tables) carry no lines of their own.
		m.coverSubtree(n, &ext)
	}
	for _, c := range children {
		sp := c.Span()
		ext.cover(int(sp.Start), int(sp.End))
	}
	if !ext.ok {
		return nil
	}

	node := syntax.NewNode(kind, m.file.ID, u32(ext.start), u32(ext.stop))
	node.Add(children...)
	return node
}

func (m *mapper) coverOwnLines(n gast.Node, ext *extent) {
	if n.Type() != gast.TypeBlock {
		return
	}
	lines := n.Lines()
	if lines.Len() == 0 {
		return
	}
	ext.cover(lines.At(0).Start, lines.At(lines.Len()-1).Stop)
}

// coverFence widens a fenced code block to its fence lines: goldmark's
// Lines() hold only the inner content, but the fold should swallow the
// fences themselves.
func (m *mapper) coverFence(cb *gast.FencedCodeBlock, ext *extent) {
	fromInfo := false
	if !ext.ok && cb.Info != nil {
		// Empty block: the info string sits on the opening fence line.
		seg := cb.Info.Segment
		ext.cover(seg.Start, seg.Stop)
		fromInfo = true
	}
	if !ext.ok {
		return
	}
	if line, ok := m.file.LineOfOffset(u32(ext.start)); ok {
		openLine := line
		if !fromInfo && openLine > 0 {
			openLine--
		}
		if ls, ok := m.file.LineStart(openLine); ok && int(ls) < ext.start {
			ext.cover(int(ls), ext.stop)
		}
	}
	if line, ok := m.file.LineOfOffset(u32(ext.stop - 1)); ok {
		closing := line + 1
		if ls, ok := m.file.LineStart(closing); ok {
			length, _ := m.file.LineLen(closing)
			ext.cover(ext.start, int(ls+length))
		} else {
			// Unclosed fence runs to end of file.
			ext.cover(ext.start, int(m.file.Len()))
		}
	}
}

// coverSubtree covers every line segment reachable under n. This is the
// fallback for container nodes; table rows, list items and quote content
// all surface here through their inner text segments.
func (m *mapper) coverSubtree(n gast.Node, ext *extent) {
	m.coverOwnLines(n, ext)
	if t, ok := n.(*gast.Text); ok {
		ext.cover(t.Segment.Start, t.Segment.Stop)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		m.coverSubtree(c, ext)
	}
}

func kindOf(n gast.Node) syntax.Kind {
	switch b := n.(type) {
	case *gast.Heading:
		return KindHeading
	case *gast.Paragraph:
		return KindParagraph
	case *gast.FencedCodeBlock:
		return KindFence
	case *gast.CodeBlock:
		return KindCode
	case *gast.Blockquote:
		return KindQuote
	case *gast.List:
		return KindList
	case *gast.ListItem:
		return KindItem
	case *gast.HTMLBlock:
		if b.HTMLBlockType == gast.HTMLBlockType2 {
			return KindComment
		}
		return KindHTML
	case *east.Table:
		return KindTable
	default:
		return KindBlock
	}
}

func u32(v int) uint32 {
	out, err := safecast.Conv[uint32](v)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return out
}
