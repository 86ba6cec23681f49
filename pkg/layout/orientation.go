package layout

import (
	"fmt"

	"github.com/matzehuels/guji/pkg/ocr"
)

// Shape is the per-box orientation vote.
type Shape int

const (
	ShapeAmbiguous Shape = iota
	ShapeVertical
	ShapeHorizontal
)

func (s Shape) String() string {
	switch s {
	case ShapeVertical:
		return "vertical"
	case ShapeHorizontal:
		return "horizontal"
	}
	return "ambiguous"
}

// Shape classifies a single box by its aspect ratio.
func (c Config) Shape(b ocr.BoundingBox) Shape {
	switch a := b.Aspect(); {
	case a < c.VerticalAspect:
		return ShapeVertical
	case a > c.HorizontalAspect:
		return ShapeHorizontal
	}
	return ShapeAmbiguous
}

// Tally is the evidence the orientation vote is decided on.
type Tally struct {
	VerticalArea    float64 `json:"vertical_area"`
	HorizontalArea  float64 `json:"horizontal_area"`
	VerticalCount   int     `json:"vertical_count"`
	HorizontalCount int     `json:"horizontal_count"`
	Ambiguous       int     `json:"ambiguous"`
}

func (t Tally) String() string {
	return fmt.Sprintf("vertical=%d (area %.0f) horizontal=%d (area %.0f) ambiguous=%d",
		t.VerticalCount, t.VerticalArea, t.HorizontalCount, t.HorizontalArea, t.Ambiguous)
}

// Tally sums area and count per shape. Ambiguous boxes are counted only in
// Tally.Ambiguous.
func (c Config) Tally(boxes []ocr.BoundingBox) Tally {
	var t Tally
	for _, b := range boxes {
		switch c.Shape(b) {
		case ShapeVertical:
			t.VerticalArea += b.Area()
			t.VerticalCount++
		case ShapeHorizontal:
			t.HorizontalArea += b.Area()
			t.HorizontalCount++
		default:
			t.Ambiguous++
		}
	}
	return t
}

// Decide turns a tally into an orientation. Area wins when one side exceeds
// the other by AreaMargin; otherwise the strict majority of boxes wins and
// a tie reads as Horizontal.
func (c Config) Decide(t Tally) ocr.Orientation {
	switch {
	case t.VerticalArea > t.HorizontalArea*c.AreaMargin:
		return ocr.Vertical
	case t.HorizontalArea > t.VerticalArea*c.AreaMargin:
		return ocr.Horizontal
	case t.VerticalCount > t.HorizontalCount:
		return ocr.Vertical
	}
	return ocr.Horizontal
}

// Classify returns the page orientation for a set of boxes. An empty set
// is Horizontal.
func (c Config) Classify(boxes []ocr.BoundingBox) ocr.Orientation {
	return c.Decide(c.Tally(boxes))
}
