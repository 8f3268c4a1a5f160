package tree

import (
	"fmt"

	"signal-forest/internal/dataset"
	"signal-forest/internal/ml/common"
)

// Build grows a tree over every row of t.
//
// A node becomes a leaf when it reaches MaxDepth, holds at most LeafSize
// rows, has only constant feature columns, or has a constant target. A split
// that leaves one side empty also becomes a leaf.
func Build(t *dataset.Table, cfg Config, sel SplitSelector) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sel == nil {
		return nil, fmt.Errorf("%w: nil split selector", common.ErrInvalidConfig)
	}
	if t == nil || t.Len() == 0 {
		return nil, common.ErrEmptyDataset
	}
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	b := builder{table: t, cfg: cfg, sel: sel}
	return b.grow(rows, 0), nil
}

type builder struct {
	table *dataset.Table
	cfg   Config
	sel   SplitSelector
}

func (b *builder) grow(rows []int, depth int) *Node {
	sub := NewSubset(b.table, rows)
	target := sub.Target()

	if depth >= b.cfg.MaxDepth || len(rows) <= b.cfg.LeafSize ||
		common.IsConstant(target) || b.featuresConstant(sub) {
		return b.leaf(target)
	}

	feature, threshold := b.sel.SelectSplit(sub)
	var left, right []int
	for _, r := range rows {
		v, _ := b.table.Value(r, feature)
		if v <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(target)
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

func (b *builder) featuresConstant(sub *Subset) bool {
	for _, f := range sub.Features() {
		if !common.IsConstant(sub.Column(f)) {
			return false
		}
	}
	return true
}

func (b *builder) leaf(target []float64) *Node {
	if b.cfg.Classifier {
		return newLeaf(common.Mode(target))
	}
	return newLeaf(common.Mean(target))
}
