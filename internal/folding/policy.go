package folding

import (
	"crease/internal/syntax"
)

// Policy decides, per node, whether a region is produced and whether the
// walk descends. A language binding supplies one; Foldable has no default
// because every grammar folds different constructs.
type Policy interface {
	// Foldable reports whether this node should produce a region.
	Foldable(node syntax.Node) bool
	// CollapsedByDefault reports whether a region for this node starts
	// collapsed on the initial pass.
	CollapsedByDefault(node syntax.Node) bool
	// TraverseInto reports whether the walk should descend into the node.
	// Overriding this is a pruning optimization, never a correctness knob.
	TraverseInto(node syntax.Node) bool
}

// PolicyFuncs adapts plain functions to Policy. Unset optional hooks get
// the standard defaults: nothing collapses automatically, and the walk
// descends into any node that has children.
type PolicyFuncs struct {
	FoldableFunc           func(syntax.Node) bool
	CollapsedByDefaultFunc func(syntax.Node) bool
	TraverseIntoFunc       func(syntax.Node) bool
}

func (p PolicyFuncs) Foldable(node syntax.Node) bool {
	if p.FoldableFunc == nil {
		return false
	}
	return p.FoldableFunc(node)
}

func (p PolicyFuncs) CollapsedByDefault(node syntax.Node) bool {
	if p.CollapsedByDefaultFunc == nil {
		return false
	}
	return p.CollapsedByDefaultFunc(node)
}

func (p PolicyFuncs) TraverseInto(node syntax.Node) bool {
	if p.TraverseIntoFunc == nil {
		return DefaultTraverseInto(node)
	}
	return p.TraverseIntoFunc(node)
}

// DefaultTraverseInto is the standard descent rule: into any node with at
// least one child.
func DefaultTraverseInto(node syntax.Node) bool {
	if node == nil {
		return false
	}
	return len(node.Children()) > 0
}
