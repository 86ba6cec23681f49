// Package pipeline runs reading-order reconstruction for the CLI and the
// HTTP server.
//
// The [Runner] wraps the layout engine with a result cache, observability
// hooks and logging so every entry point orders pages the same way. A page
// is keyed by the hash of its canonical JSON together with the layout
// thresholds, so re-ordering an unchanged page is a cache lookup.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Order(ctx, page, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Text)
//
// Whole documents are ordered page by page on a bounded worker pool:
//
//	results, err := runner.OrderDocument(ctx, pages, pipeline.Options{Concurrency: 4})
//
// Diagrams of the reading order are rendered, and cached, with
// [Runner.Graph].
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/guji/pkg/cache"
	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/layout"
	"github.com/matzehuels/guji/pkg/ocr"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultConcurrency is the number of pages ordered at once by
	// OrderDocument.
	DefaultConcurrency = 4

	// MaxConcurrency caps Options.Concurrency.
	MaxConcurrency = 64
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one ordering run. It supports JSON for API requests.
type Options struct {
	// Layout holds the engine thresholds. Zero fields take their defaults.
	Layout layout.Config `json:"layout"`

	// Orientation forces "horizontal" or "vertical". Empty classifies the
	// page.
	Orientation string `json:"orientation,omitempty"`

	// Separator is placed between detections in Result.Text. The default
	// concatenates them directly.
	Separator string `json:"separator,omitempty"`

	// Refresh skips the cache lookup. The fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Concurrency bounds the pages ordered at once by OrderDocument.
	Concurrency int `json:"concurrency,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks every field.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if _, err := o.forced(); err != nil {
		return err
	}
	if o.Concurrency > MaxConcurrency {
		return errs.New(errs.ErrCodeInvalidInput, "concurrency %d exceeds %d", o.Concurrency, MaxConcurrency)
	}
	return nil
}

// PageKeyOpts returns the cache key options for the ordering result.
func (o *Options) PageKeyOpts() cache.PageKeyOpts {
	opts := cache.PageKeyOpts{Layout: o.Layout}
	if f, err := o.forced(); err == nil && f != nil {
		opts.Orientation = f.String()
	}
	return opts
}

// forced parses Orientation. It returns nil when the page is classified.
func (o *Options) forced() (*ocr.Orientation, error) {
	if o.Orientation == "" {
		return nil, nil
	}
	v, err := ocr.ParseOrientation(o.Orientation)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of ordering one page.
type Result struct {
	// Page holds the detections in reading order.
	Page *ocr.Page `json:"page"`

	// Orientation is the classified or forced orientation.
	Orientation ocr.Orientation `json:"orientation"`

	// Order maps output positions to input positions.
	Order []int `json:"order"`

	// Columns is the number of columns (1 for a horizontal page).
	Columns int `json:"columns"`

	// ColumnSizes is the number of detections per column, in reading order.
	ColumnSizes []int `json:"column_sizes,omitempty"`

	// Tally is the orientation evidence.
	Tally layout.Tally `json:"tally"`

	// Text joins the ordered texts with Options.Separator.
	Text string `json:"text"`

	// Degraded is set when the page could not be ordered and is returned
	// in detector order. Err holds the reason.
	Degraded bool  `json:"degraded,omitempty"`
	Err      error `json:"-"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache"`
}

// Ordered returns the page in its wire form, tagged with the orientation.
func (r *Result) Ordered() *ocr.Ordered {
	return &ocr.Ordered{Page: *r.Page.Clone(), Orientation: r.Orientation}
}

// Stats contains run statistics.
type Stats struct {
	Detections int           `json:"detections"`
	Duration   time.Duration `json:"duration_ns"`
}

// CacheInfo tracks whether the result came from the cache.
type CacheInfo struct {
	Hit bool   `json:"hit"`
	Key string `json:"key,omitempty"`
}
