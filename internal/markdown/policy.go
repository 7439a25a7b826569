package markdown

import (
	"fmt"

	"crease/internal/folding"
	"crease/internal/syntax"
)

// foldableKinds are the constructs worth collapsing. Headings and
// paragraphs stay visible; their structure is the document.
var foldableKinds = map[syntax.Kind]struct{}{
	KindFence:   {},
	KindCode:    {},
	KindQuote:   {},
	KindList:    {},
	KindHTML:    {},
	KindComment: {},
	KindTable:   {},
}

// Policy returns the markdown folding policy. Nodes of the given kinds
// start collapsed on the initial pass.
func Policy(collapsed ...syntax.Kind) folding.Policy {
	set := make(map[syntax.Kind]struct{}, len(collapsed))
	for _, k := range collapsed {
		set[k] = struct{}{}
	}
	return folding.PolicyFuncs{
		FoldableFunc: func(n syntax.Node) bool {
			_, ok := foldableKinds[n.Kind()]
			return ok
		},
		CollapsedByDefaultFunc: func(n syntax.Node) bool {
			_, ok := set[n.Kind()]
			return ok
		},
	}
}

// KindByName resolves the short names used in crease.toml.
func KindByName(name string) (syntax.Kind, error) {
	switch name {
	case "fence":
		return KindFence, nil
	case "code":
		return KindCode, nil
	case "quote":
		return KindQuote, nil
	case "list":
		return KindList, nil
	case "html":
		return KindHTML, nil
	case "comment":
		return KindComment, nil
	case "table":
		return KindTable, nil
	default:
		return "", fmt.Errorf("unknown fold kind %q", name)
	}
}
