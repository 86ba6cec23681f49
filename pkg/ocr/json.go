package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Ordered is the wire form of a page after reading-order reconstruction:
// the page's three sequences plus the orientation tag.
//
//	{"rec_polys": [[[x,y],...]], "rec_texts": [...], "rec_scores": [...], "orientation": "vertical"}
type Ordered struct {
	Page        `bson:",inline"`
	Orientation Orientation `json:"orientation" bson:"orientation"`
}

// Clone returns a deep copy.
func (o *Ordered) Clone() *Ordered {
	return &Ordered{Page: *o.Page.Clone(), Orientation: o.Orientation}
}

// ReadPage decodes a page from r. An "orientation" key, if present, is
// ignored; use [ReadOrdered] to keep it.
//
// Polygons with the wrong number of points, and points that are null,
// non-numeric or not pairs, decode fine and are left for [Page.Validate] or
// the layout engine to judge. Only invalid JSON or a wrongly typed sequence
// is a decode error. ReadPage does not close r.
func ReadPage(r io.Reader) (*Page, error) {
	o, err := ReadOrdered(r)
	if err != nil {
		return nil, err
	}
	return &o.Page, nil
}

// ReadOrdered decodes a page together with its orientation tag. A missing
// tag decodes as [Horizontal].
func ReadOrdered(r io.Reader) (*Ordered, error) {
	var o Ordered
	if err := json.NewDecoder(r).Decode(&o); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	o.Page.normalize()
	return &o, nil
}

// ReadPageFile reads a page JSON file at path.
func ReadPageFile(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPage(f)
}

// WritePage encodes the page with its orientation tag as indented JSON.
func WritePage(w io.Writer, p *Page, o Orientation) error {
	out := Ordered{Page: *p, Orientation: o}
	out.Page.normalize()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	return nil
}

// WritePageFile writes the page to a JSON file at path.
func WritePageFile(path string, p *Page, o Orientation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePage(f, p, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MarshalPage returns the compact JSON encoding of the page without an
// orientation tag. Cache keys are derived from it, so equal pages always
// marshal to equal bytes.
func MarshalPage(p *Page) ([]byte, error) {
	c := *p
	c.normalize()
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	return data, nil
}

// normalize turns nil sequences into empty ones so they encode as [] rather
// than null.
func (p *Page) normalize() {
	if p.Polygons == nil {
		p.Polygons = []Polygon{}
	}
	if p.Texts == nil {
		p.Texts = []string{}
	}
	if p.Scores == nil {
		p.Scores = []float64{}
	}
}
