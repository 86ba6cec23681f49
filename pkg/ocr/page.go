package ocr

import (
	"strings"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/perm"
)

// MinBoxSize is the smallest width or height, in pixels, that ResizeBox accepts.
const MinBoxSize = 10.0

// Detection is one OCR-recognized text line: its quadrilateral, the recognized
// string and the recognizer's confidence in [0, 1].
type Detection struct {
	Polygon Polygon `json:"polygon"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// Page holds the detections of one scanned page as three parallel sequences.
// Position i across all three describes one detection, and every mutating
// method keeps the sequences the same length.
//
// The zero value is an empty page.
type Page struct {
	Polygons []Polygon `json:"rec_polys" bson:"rec_polys"`
	Texts    []string  `json:"rec_texts" bson:"rec_texts"`
	Scores   []float64 `json:"rec_scores" bson:"rec_scores"`
}

// NewPage builds a page from detections in emission order.
func NewPage(dets ...Detection) *Page {
	p := &Page{
		Polygons: make([]Polygon, 0, len(dets)),
		Texts:    make([]string, 0, len(dets)),
		Scores:   make([]float64, 0, len(dets)),
	}
	for _, d := range dets {
		p.Append(d)
	}
	return p
}

// Len returns the number of detections. On an inconsistent page it returns
// the length of the polygon sequence.
func (p *Page) Len() int {
	return len(p.Polygons)
}

// Consistent reports whether the three sequences have equal length.
func (p *Page) Consistent() error {
	if len(p.Polygons) != len(p.Texts) || len(p.Polygons) != len(p.Scores) {
		return errs.New(errs.ErrCodeInconsistentArrays,
			"page has %d polygons, %d texts, %d scores", len(p.Polygons), len(p.Texts), len(p.Scores))
	}
	return nil
}

// Validate checks array consistency and the geometry of every polygon.
func (p *Page) Validate() error {
	if err := p.Consistent(); err != nil {
		return err
	}
	for i, poly := range p.Polygons {
		if err := poly.Validate(); err != nil {
			return errs.Wrap(errs.ErrCodeMalformedGeometry, err, "detection %d", i)
		}
	}
	return nil
}

// Detection returns the i-th detection with a copied polygon.
func (p *Page) Detection(i int) (Detection, error) {
	if err := p.check(i); err != nil {
		return Detection{}, err
	}
	return Detection{Polygon: p.Polygons[i].Clone(), Text: p.Texts[i], Score: p.Scores[i]}, nil
}

// Detections returns every detection in page order. It requires a
// consistent page.
func (p *Page) Detections() ([]Detection, error) {
	if err := p.Consistent(); err != nil {
		return nil, err
	}
	out := make([]Detection, len(p.Polygons))
	for i := range p.Polygons {
		out[i] = Detection{Polygon: p.Polygons[i].Clone(), Text: p.Texts[i], Score: p.Scores[i]}
	}
	return out, nil
}

// Clone returns a deep copy. Nil sequences come back as empty ones.
func (p *Page) Clone() *Page {
	out := &Page{
		Polygons: make([]Polygon, len(p.Polygons)),
		Texts:    make([]string, len(p.Texts)),
		Scores:   make([]float64, len(p.Scores)),
	}
	for i, poly := range p.Polygons {
		out.Polygons[i] = poly.Clone()
	}
	copy(out.Texts, p.Texts)
	copy(out.Scores, p.Scores)
	return out
}

// Permute returns a new page whose i-th detection is p's order[i]-th.
// The receiver is left untouched.
func (p *Page) Permute(order []int) (*Page, error) {
	if err := p.Consistent(); err != nil {
		return nil, err
	}
	if !perm.IsPermutation(order, p.Len()) {
		return nil, errs.New(errs.ErrCodeInvalidIndex, "order is not a permutation of %d detections", p.Len())
	}
	src := p.Clone()
	return &Page{
		Polygons: perm.Apply(src.Polygons, order),
		Texts:    perm.Apply(src.Texts, order),
		Scores:   perm.Apply(src.Scores, order),
	}, nil
}

// Append adds a detection at the end.
func (p *Page) Append(d Detection) {
	p.Polygons = append(p.Polygons, d.Polygon.Clone())
	p.Texts = append(p.Texts, d.Text)
	p.Scores = append(p.Scores, d.Score)
}

// Replace swaps the polygon of detection i, keeping its text and score.
func (p *Page) Replace(i int, poly Polygon) error {
	if err := p.check(i); err != nil {
		return err
	}
	if err := poly.Validate(); err != nil {
		return err
	}
	p.Polygons[i] = poly.Clone()
	return nil
}

// ResizeBox replaces detection i's polygon with an axis-aligned rectangle.
// Boxes narrower or shorter than [MinBoxSize] are rejected.
func (p *Page) ResizeBox(i int, box BoundingBox) error {
	if box.Width() < MinBoxSize || box.Height() < MinBoxSize {
		return errs.New(errs.ErrCodeInvalidInput,
			"box %.0fx%.0f is smaller than %.0fpx", box.Width(), box.Height(), MinBoxSize)
	}
	return p.Replace(i, box.Polygon())
}

// Remove deletes detection i from all three sequences.
func (p *Page) Remove(i int) error {
	if err := p.check(i); err != nil {
		return err
	}
	p.Polygons = append(p.Polygons[:i], p.Polygons[i+1:]...)
	p.Texts = append(p.Texts[:i], p.Texts[i+1:]...)
	p.Scores = append(p.Scores[:i], p.Scores[i+1:]...)
	return nil
}

// SetText overwrites the recognized text of detection i.
func (p *Page) SetText(i int, text string) error {
	if err := p.check(i); err != nil {
		return err
	}
	p.Texts[i] = text
	return nil
}

// Text joins the recognized strings in page order.
func (p *Page) Text(sep string) string {
	return strings.Join(p.Texts, sep)
}

func (p *Page) check(i int) error {
	if err := p.Consistent(); err != nil {
		return err
	}
	if i < 0 || i >= p.Len() {
		return errs.New(errs.ErrCodeInvalidIndex, "index %d out of range [0,%d)", i, p.Len())
	}
	return nil
}
