// Package tree implements binary regression and classification trees grown
// by a pluggable split selector.
package tree

import (
	"fmt"
	"strings"
)

// Node is either a leaf holding a prediction or an internal split. Rows with
// a feature value <= Threshold go Left, all others go Right. Children are
// owned by their parent and the tree is read-only once built.
type Node struct {
	IsLeaf    bool
	Value     float64
	Feature   string
	Threshold float64
	Left      *Node
	Right     *Node
}

func newLeaf(v float64) *Node { return &Node{IsLeaf: true, Value: v} }

// Depth returns the number of edges on the longest root-to-leaf path.
func (n *Node) Depth() int {
	if n == nil || n.IsLeaf {
		return 0
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

// Leaves returns the number of leaves under n.
func (n *Node) Leaves() int {
	if n == nil {
		return 0
	}
	if n.IsLeaf {
		return 1
	}
	return n.Left.Leaves() + n.Right.Leaves()
}

// Count returns the number of nodes under n, n included.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	if n.IsLeaf {
		return 1
	}
	return 1 + n.Left.Count() + n.Right.Count()
}

// String renders the tree one node per line, indented by depth.
func (n *Node) String() string {
	var b strings.Builder
	n.render(&b, 0)
	return b.String()
}

func (n *Node) render(b *strings.Builder, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	if n.IsLeaf {
		fmt.Fprintf(b, "%sleaf %g\n", indent, n.Value)
		return
	}
	fmt.Fprintf(b, "%s%s <= %g\n", indent, n.Feature, n.Threshold)
	n.Left.render(b, depth+1)
	n.Right.render(b, depth+1)
}

func (n *Node) collectFeatures(seen map[string]struct{}) {
	if n == nil || n.IsLeaf {
		return
	}
	seen[n.Feature] = struct{}{}
	n.Left.collectFeatures(seen)
	n.Right.collectFeatures(seen)
}
