package layout

import (
	"cmp"
	"slices"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/perm"
)

// Result is the outcome of ordering one page.
type Result struct {
	// Page is a newly built page holding the input detections in reading
	// order. It never shares storage with the input.
	Page *ocr.Page

	// Orientation is the classified (or forced) page orientation.
	Orientation ocr.Orientation

	// Order is the permutation applied: Page's k-th detection is the
	// input's Order[k]-th.
	Order []int

	// Columns is the number of columns found on a vertical page, 1 for a
	// non-empty horizontal page and 0 for an empty one.
	Columns int

	// ColumnSizes holds the number of detections in each column, in reading
	// order. Each column occupies a consecutive run of Page.
	ColumnSizes []int

	// Tally is the orientation evidence gathered from well-formed boxes.
	Tally Tally

	// Err is set when the input could not be ordered. Page is then a copy
	// of the input with the identity Order.
	Err error
}

// Degraded reports whether the page was returned unordered.
func (r *Result) Degraded() bool {
	return r.Err != nil
}

// Sequencer reconstructs reading order. It holds no mutable state and is
// safe for concurrent use.
type Sequencer struct {
	cfg Config
}

// New returns a Sequencer using cfg. Zero thresholds take their defaults.
func New(cfg Config) *Sequencer {
	cfg.SetDefaults()
	return &Sequencer{cfg: cfg}
}

// Config returns the thresholds in use.
func (s *Sequencer) Config() Config {
	return s.cfg
}

// Order classifies the page and returns its detections in reading order.
//
// Order never fails. A page with inconsistent sequences, a polygon that is
// not four finite points, or any panic while measuring geometry yields a
// copy of the input in its original order, tagged with the orientation of
// whatever boxes could be measured, and the reason in Result.Err.
func (s *Sequencer) Order(page *ocr.Page) *Result {
	return s.order(page, nil)
}

// OrderAs orders the page as if it had been classified as o.
func (s *Sequencer) OrderAs(page *ocr.Page, o ocr.Orientation) *Result {
	return s.order(page, &o)
}

func (s *Sequencer) order(page *ocr.Page, force *ocr.Orientation) (res *Result) {
	if page == nil {
		page = &ocr.Page{}
	}

	defer func() {
		if r := recover(); r != nil {
			res = s.degrade(page, force, errs.New(errs.ErrCodeInternal, "order page: %v", r))
		}
	}()

	if err := page.Consistent(); err != nil {
		return s.degrade(page, force, err)
	}
	boxes := make([]ocr.BoundingBox, page.Len())
	for i, poly := range page.Polygons {
		if err := poly.Validate(); err != nil {
			return s.degrade(page, force, errs.Wrap(errs.ErrCodeMalformedGeometry, err, "detection %d", i))
		}
		boxes[i] = poly.Bounds()
	}

	tally := s.cfg.Tally(boxes)
	orientation := s.cfg.Decide(tally)
	if force != nil {
		orientation = *force
	}

	var order, sizes []int
	if orientation == ocr.Vertical {
		order, sizes = s.verticalOrder(boxes)
	} else {
		order = horizontalOrder(boxes)
		if len(boxes) > 0 {
			sizes = []int{len(boxes)}
		}
	}

	out, err := page.Permute(order)
	if err != nil {
		return s.degrade(page, force, errs.Wrap(errs.ErrCodeInternal, err, "apply reading order"))
	}
	return &Result{
		Page:        out,
		Orientation: orientation,
		Order:       order,
		Columns:     len(sizes),
		ColumnSizes: sizes,
		Tally:       tally,
	}
}

// degrade returns the input unchanged. The orientation is the forced one or
// the vote over every polygon that is still measurable.
func (s *Sequencer) degrade(page *ocr.Page, force *ocr.Orientation, reason error) *Result {
	var boxes []ocr.BoundingBox
	for _, poly := range page.Polygons {
		if poly.Validate() == nil {
			boxes = append(boxes, poly.Bounds())
		}
	}
	tally := s.cfg.Tally(boxes)
	orientation := s.cfg.Decide(tally)
	if force != nil {
		orientation = *force
	}
	return &Result{
		Page:        page.Clone(),
		Orientation: orientation,
		Order:       perm.Seq(page.Len()),
		Tally:       tally,
		Err:         reason,
	}
}

// horizontalOrder sorts top to bottom, then left to right.
func horizontalOrder(boxes []ocr.BoundingBox) []int {
	order := perm.Seq(len(boxes))
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(boxes[a].YMin, boxes[b].YMin); c != 0 {
			return c
		}
		return cmp.Compare(boxes[a].XMin, boxes[b].XMin)
	})
	return order
}

// verticalOrder reads columns right to left and each column top to bottom.
func (s *Sequencer) verticalOrder(boxes []ocr.BoundingBox) ([]int, []int) {
	cols := s.cfg.ClusterColumns(boxes)
	slices.SortStableFunc(cols, func(a, b Column) int {
		return cmp.Compare(b.Right(), a.Right())
	})

	order := make([]int, 0, len(boxes))
	sizes := make([]int, 0, len(cols))
	for _, col := range cols {
		members := slices.Clone(col.Members)
		// Members arrive in right-edge order; equal tops keep detector order.
		slices.SortFunc(members, func(a, b Member) int {
			if c := cmp.Compare(a.Box.YMin, b.Box.YMin); c != 0 {
				return c
			}
			return cmp.Compare(a.Index, b.Index)
		})
		for _, m := range members {
			order = append(order, m.Index)
		}
		sizes = append(sizes, len(members))
	}
	return order, sizes
}
