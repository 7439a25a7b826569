// Package syntax defines the read-only tree view the folding extractor
// walks. Language bindings adapt their parser's AST to these interfaces;
// the extractor never sees parser-specific types.
package syntax

import (
	"crease/internal/source"
)

// Kind discriminates node types. Values are opaque to the extractor; only
// a binding's folding policy interprets them. Bindings prefix their kinds
// ("md.fence", "md.list") so trees from different bindings stay legible in
// diagnostics.
type Kind string

// Node is a single syntax-tree node. Implementations must guarantee
// Span().Start <= Span().End and that sibling spans are non-decreasing in
// document order.
type Node interface {
	Span() source.Span
	Kind() Kind
	Children() []Node
}

// Root is the distinguished tree root. Comment nodes are not part of the
// structural child sequence but are folded as if they were siblings of the
// last child.
type Root interface {
	Node
	Comments() []Node
}

// TreeNode is the concrete Node used by bindings and tests.
type TreeNode struct {
	NodeKind Kind
	NodeSpan source.Span
	Kids     []Node
}

func (n *TreeNode) Span() source.Span { return n.NodeSpan }
func (n *TreeNode) Kind() Kind        { return n.NodeKind }
func (n *TreeNode) Children() []Node  { return n.Kids }

// Add appends a child and returns the node for chaining.
func (n *TreeNode) Add(children ...Node) *TreeNode {
	n.Kids = append(n.Kids, children...)
	return n
}

// TreeRoot is the concrete Root.
type TreeRoot struct {
	TreeNode
	CommentNodes []Node
}

func (r *TreeRoot) Comments() []Node { return r.CommentNodes }

// AddComment appends a root-level comment node.
func (r *TreeRoot) AddComment(nodes ...Node) *TreeRoot {
	r.CommentNodes = append(r.CommentNodes, nodes...)
	return r
}

// NewNode constructs a TreeNode covering [start, end) in file.
func NewNode(kind Kind, file source.FileID, start, end uint32) *TreeNode {
	return &TreeNode{
		NodeKind: kind,
		NodeSpan: source.Span{File: file, Start: start, End: end},
	}
}

// NewRoot constructs a TreeRoot covering [start, end) in file.
func NewRoot(kind Kind, file source.FileID, start, end uint32) *TreeRoot {
	return &TreeRoot{
		TreeNode: TreeNode{
			NodeKind: kind,
			NodeSpan: source.Span{File: file, Start: start, End: end},
		},
	}
}
