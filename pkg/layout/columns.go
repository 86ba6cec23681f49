package layout

import (
	"slices"

	"github.com/matzehuels/guji/pkg/ocr"
)

// Member is one box assigned to a column, with its index on the page.
type Member struct {
	Index int
	Box   ocr.BoundingBox
}

// Column is a group of boxes that share a right-aligned vertical guide.
type Column struct {
	Members []Member
}

// Right returns the largest right edge among the members.
func (c Column) Right() float64 {
	var r float64
	for i, m := range c.Members {
		if i == 0 || m.Box.XMax > r {
			r = m.Box.XMax
		}
	}
	return r
}

// Indices returns the member page indices in member order.
func (c Column) Indices() []int {
	out := make([]int, len(c.Members))
	for i, m := range c.Members {
		out[i] = m.Index
	}
	return out
}

// Threshold returns the right-edge distance within which boxes join a
// column: the largest of MinThreshold, SpanRatio times the spread of right
// edges and WidthRatio times the mean box width.
func (c Config) Threshold(boxes []ocr.BoundingBox) float64 {
	if len(boxes) == 0 {
		return c.MinThreshold
	}
	lo, hi := boxes[0].XMax, boxes[0].XMax
	var widths float64
	for _, b := range boxes {
		lo = min(lo, b.XMax)
		hi = max(hi, b.XMax)
		widths += b.Width()
	}
	mean := widths / float64(len(boxes))
	return max(c.MinThreshold, c.SpanRatio*(hi-lo), c.WidthRatio*mean)
}

// ClusterColumns partitions boxes into right-aligned columns.
//
// Boxes are visited by right edge, rightmost first (ties by index). Each box
// not yet in a column opens one at its right edge and pulls in every later
// free box whose right edge lies within Threshold to its left. A column is
// never reopened, so merging only ever runs leftward.
//
// Columns come back rightmost first. Every index appears in exactly one column.
func (c Config) ClusterColumns(boxes []ocr.BoundingBox) []Column {
	if len(boxes) == 0 {
		return nil
	}
	threshold := c.Threshold(boxes)

	byRight := make([]int, len(boxes))
	for i := range byRight {
		byRight[i] = i
	}
	slices.SortStableFunc(byRight, func(a, b int) int {
		switch {
		case boxes[a].XMax > boxes[b].XMax:
			return -1
		case boxes[a].XMax < boxes[b].XMax:
			return 1
		}
		return 0
	})

	assigned := make([]bool, len(boxes))
	var cols []Column
	for k, seed := range byRight {
		if assigned[seed] {
			continue
		}
		anchor := boxes[seed].XMax
		col := Column{Members: []Member{{Index: seed, Box: boxes[seed]}}}
		assigned[seed] = true
		for _, j := range byRight[k+1:] {
			if assigned[j] {
				continue
			}
			x2 := boxes[j].XMax
			if x2 < anchor-threshold {
				break
			}
			if x2 <= anchor {
				col.Members = append(col.Members, Member{Index: j, Box: boxes[j]})
				assigned[j] = true
			}
		}
		cols = append(cols, col)
	}
	return cols
}
