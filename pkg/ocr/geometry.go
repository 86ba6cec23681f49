package ocr

import (
	"bytes"
	"encoding/json"
	"math"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// DegenerateAspect is the aspect ratio reported for a box with zero height.
// It sits far above any horizontal threshold so such boxes always count as wide.
const DegenerateAspect = 10.0

// Point is a 2D point in page pixel coordinates (Y grows downward).
type Point struct {
	X, Y float64

	// raw is the detector's encoding of a point that did not decode as two
	// numbers. Such a point has NaN coordinates and re-encodes as raw.
	raw string
}

// Malformed reports whether the point decoded from something other than a
// two-number array, such as null, a string or a one-element array.
func (p Point) Malformed() bool {
	return p.raw != ""
}

// MarshalJSON encodes the point as a two-element array, the detector's
// native format. A non-finite coordinate encodes as null.
func (p Point) MarshalJSON() ([]byte, error) {
	if p.raw != "" {
		return []byte(p.raw), nil
	}
	return json.Marshal([2]*float64{coord(p.X), coord(p.Y)})
}

// UnmarshalJSON decodes a [x, y] array. Anything else is kept verbatim as a
// malformed point so the page still loads and the layout engine can leave it
// in detector order.
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []json.RawMessage
	if err := json.Unmarshal(data, &xy); err == nil && len(xy) == 2 {
		x, okX := number(xy[0])
		y, okY := number(xy[1])
		if okX && okY {
			*p = Point{X: x, Y: y}
			return nil
		}
	}
	*p = Point{X: math.NaN(), Y: math.NaN(), raw: string(bytes.TrimSpace(data))}
	return nil
}

// number decodes a JSON number. null and every other type are rejected.
func number(data json.RawMessage) (float64, bool) {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}

func coord(v float64) *float64 {
	if !finite(v) {
		return nil
	}
	return &v
}

// Polygon is the quadrilateral a detector emits for one text line.
// A well-formed polygon has exactly four points with finite coordinates;
// decoding accepts any count so the layout engine can degrade on bad input
// instead of the caller failing to load it.
type Polygon []Point

// Rect returns the axis-aligned rectangle polygon, clockwise from the
// top-left corner.
func Rect(xmin, ymin, xmax, ymax float64) Polygon {
	return Polygon{
		{X: xmin, Y: ymin},
		{X: xmax, Y: ymin},
		{X: xmax, Y: ymax},
		{X: xmin, Y: ymax},
	}
}

// Clone returns a deep copy of the polygon.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Validate reports MALFORMED_GEOMETRY when the polygon does not have four
// points or one of them is malformed or not finite.
func (p Polygon) Validate() error {
	if len(p) != 4 {
		return errs.New(errs.ErrCodeMalformedGeometry, "polygon has %d points, want 4", len(p))
	}
	for i, pt := range p {
		if pt.Malformed() {
			return errs.New(errs.ErrCodeMalformedGeometry, "polygon point %d is not two numbers: %s", i, pt.raw)
		}
		if !finite(pt.X) || !finite(pt.Y) {
			return errs.New(errs.ErrCodeMalformedGeometry, "polygon point %d has non-numeric coordinate (%v, %v)", i, pt.X, pt.Y)
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the polygon.
// An empty polygon yields the zero box.
func (p Polygon) Bounds() BoundingBox {
	if len(p) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{XMin: p[0].X, YMin: p[0].Y, XMax: p[0].X, YMax: p[0].Y}
	for _, pt := range p[1:] {
		b.XMin = math.Min(b.XMin, pt.X)
		b.YMin = math.Min(b.YMin, pt.Y)
		b.XMax = math.Max(b.XMax, pt.X)
		b.YMax = math.Max(b.YMax, pt.Y)
	}
	return b
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BoundingBox is the axis-aligned extent of a polygon. It is always derived,
// never stored on a page.
type BoundingBox struct {
	XMin, YMin, XMax, YMax float64
}

// Width returns XMax - XMin.
func (b BoundingBox) Width() float64 { return b.XMax - b.XMin }

// Height returns YMax - YMin.
func (b BoundingBox) Height() float64 { return b.YMax - b.YMin }

// Area returns Width * Height.
func (b BoundingBox) Area() float64 { return b.Width() * b.Height() }

// Aspect returns Width / Height, or [DegenerateAspect] for a zero-height box.
func (b BoundingBox) Aspect() float64 {
	h := b.Height()
	if h == 0 {
		return DegenerateAspect
	}
	return b.Width() / h
}

// Polygon returns the box as a four-point rectangle.
func (b BoundingBox) Polygon() Polygon {
	return Rect(b.XMin, b.YMin, b.XMax, b.YMax)
}
