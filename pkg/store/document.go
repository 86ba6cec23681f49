// Package store persists per-document OCR results.
//
// A [Document] collects everything produced for one scanned PDF: for each
// page, the ordered OCR detections and the text the desktop application
// derived from them (punctuated text, vernacular translation, explanation).
// Pages are keyed by their zero-based number as a decimal string, matching
// the JSON files written by earlier versions:
//
//	{
//	  "name": "論語.pdf",
//	  "pages": {
//	    "0": {"ocr": {"rec_polys": [...], "rec_texts": [...], "rec_scores": [...], "orientation": "vertical"},
//	          "auto_punctuate": "子曰：學而時習之，不亦說乎？"}
//	  },
//	  "updated_at": "2024-05-01T12:00:00Z",
//	  "revision": "5f0c..."
//	}
//
// Two [Store] backends exist: [FileStore], one JSON file per document, and
// [MongoStore]. A [Workspace] keeps recently opened documents in memory on
// top of either.
package store

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/matzehuels/guji/pkg/ocr"
)

// PageRecord is everything stored for one page. The text fields are
// produced elsewhere and kept verbatim.
type PageRecord struct {
	OCR         *ocr.Ordered `json:"ocr,omitempty" bson:"ocr,omitempty"`
	Punctuated  string       `json:"auto_punctuate,omitempty" bson:"auto_punctuate,omitempty"`
	Vernacular  string       `json:"vernacular,omitempty" bson:"vernacular,omitempty"`
	Explanation string       `json:"explain,omitempty" bson:"explain,omitempty"`
}

// Clone returns a deep copy.
func (r PageRecord) Clone() PageRecord {
	if r.OCR != nil {
		r.OCR = r.OCR.Clone()
	}
	return r
}

// Merge overwrites r's fields with the non-empty fields of u.
func (r *PageRecord) Merge(u PageRecord) {
	if u.OCR != nil {
		r.OCR = u.OCR.Clone()
	}
	if u.Punctuated != "" {
		r.Punctuated = u.Punctuated
	}
	if u.Vernacular != "" {
		r.Vernacular = u.Vernacular
	}
	if u.Explanation != "" {
		r.Explanation = u.Explanation
	}
}

// Document is the stored state of one PDF.
type Document struct {
	Name      string                `json:"name" bson:"_id"`
	Pages     map[string]PageRecord `json:"pages" bson:"pages"`
	UpdatedAt time.Time             `json:"updated_at" bson:"updated_at"`
	Revision  string                `json:"revision" bson:"revision"`
}

// NewDocument returns an empty document.
func NewDocument(name string) *Document {
	return &Document{Name: name, Pages: make(map[string]PageRecord)}
}

// Page returns the record for page n.
func (d *Document) Page(n int) (PageRecord, bool) {
	r, ok := d.Pages[strconv.Itoa(n)]
	return r, ok
}

// SetPage stores rec as page n.
func (d *Document) SetPage(n int, rec PageRecord) {
	if d.Pages == nil {
		d.Pages = make(map[string]PageRecord)
	}
	d.Pages[strconv.Itoa(n)] = rec
}

// PageNumbers returns the stored page numbers in ascending order. Keys that
// are not page numbers are skipped.
func (d *Document) PageNumbers() []int {
	nums := make([]int, 0, len(d.Pages))
	for k := range d.Pages {
		if n, err := strconv.Atoi(k); err == nil && n >= 0 {
			nums = append(nums, n)
		}
	}
	slices.Sort(nums)
	return nums
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := *d
	out.Pages = make(map[string]PageRecord, len(d.Pages))
	for k, r := range d.Pages {
		out.Pages[k] = r.Clone()
	}
	return &out
}

// Store persists documents by name.
type Store interface {
	// Load returns the named document or a DOCUMENT_NOT_FOUND error.
	Load(ctx context.Context, name string) (*Document, error)

	// Save writes doc, stamping a new UpdatedAt and Revision on it.
	Save(ctx context.Context, doc *Document) error

	// Delete removes the named document. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored document names, sorted.
	List(ctx context.Context) ([]string, error)

	Close() error
}
