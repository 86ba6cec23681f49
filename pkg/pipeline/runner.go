package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/guji/pkg/cache"
	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/layout"
	"github.com/matzehuels/guji/pkg/observability"
	"github.com/matzehuels/guji/pkg/ocr"
)

// Runner orders pages with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedOrder is what the page cache stores. The ordered page itself is
// rebuilt from the input and Order.
type cachedOrder struct {
	Orientation ocr.Orientation `json:"orientation"`
	Order       []int           `json:"order"`
	ColumnSizes []int           `json:"column_sizes,omitempty"`
	Tally       layout.Tally    `json:"tally"`
}

// Order reconstructs the reading order of one page.
//
// The returned error reports invalid options or a cancelled context only.
// A page that cannot be ordered comes back degraded, in detector order,
// with Result.Err set.
func (r *Runner) Order(ctx context.Context, page *ocr.Page, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return r.order(ctx, page, opts)
}

// order runs one page with already validated options.
func (r *Runner) order(ctx context.Context, page *ocr.Page, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page == nil {
		page = &ocr.Page{}
	}
	start := time.Now()
	observability.Order().OnOrderStart(ctx, page.Len())

	key, keyErr := r.pageKey(page, opts)
	if keyErr == nil && !opts.Refresh {
		if res, ok := r.lookup(ctx, key, page, opts); ok {
			res.Stats.Duration = time.Since(start)
			observability.Order().OnOrderComplete(ctx, res.Orientation.String(), res.Columns, res.Stats.Duration)
			return res, nil
		}
	}

	seq := layout.New(opts.Layout)
	var lr *layout.Result
	if f, _ := opts.forced(); f != nil {
		lr = seq.OrderAs(page, *f)
	} else {
		lr = seq.Order(page)
	}
	res := newResult(lr, opts.Separator)
	res.Stats.Duration = time.Since(start)
	res.CacheInfo.Key = key

	if res.Degraded {
		code := string(errs.GetCode(lr.Err))
		opts.Logger.Warn("page left in detector order",
			"code", code,
			"detections", page.Len(),
			"err", lr.Err)
		observability.Order().OnOrderDegraded(ctx, code, lr.Err)
		return res, nil
	}

	opts.Logger.Debug("ordered page",
		"detections", res.Stats.Detections,
		"orientation", res.Orientation,
		"columns", res.Columns,
		"tally", res.Tally,
		"duration", res.Stats.Duration)
	observability.Order().OnOrderComplete(ctx, res.Orientation.String(), res.Columns, res.Stats.Duration)

	if keyErr == nil {
		r.store(ctx, key, lr)
	}
	return res, nil
}

// OrderDocument orders every page on a worker pool bounded by
// Options.Concurrency. Results keep the input order. The first error
// cancels the remaining pages.
func (r *Runner) OrderDocument(ctx context.Context, pages []*ocr.Page, opts Options) ([]*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	results := make([]*Result, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, page := range pages {
		g.Go(func() error {
			res, err := r.order(gctx, page, opts)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var degraded, hits int
	for _, res := range results {
		if res.Degraded {
			degraded++
		}
		if res.CacheInfo.Hit {
			hits++
		}
	}
	opts.Logger.Info("ordered document",
		"pages", len(pages),
		"degraded", degraded,
		"cache_hits", hits)
	return results, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) pageKey(page *ocr.Page, opts Options) (string, error) {
	data, err := ocr.MarshalPage(page)
	if err != nil {
		return "", err
	}
	return r.Keyer.PageKey(cache.Hash(data), opts.PageKeyOpts()), nil
}

// lookup rebuilds a result from the cache. Entries that fail to decode or
// no longer fit the page count as misses.
func (r *Runner) lookup(ctx context.Context, key string, page *ocr.Page, opts Options) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Debug("cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "page")
		return nil, false
	}

	var c cachedOrder
	if err := json.Unmarshal(data, &c); err != nil {
		observability.Cache().OnCacheMiss(ctx, "page")
		return nil, false
	}
	out, err := page.Permute(c.Order)
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "page")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "page")

	res := newResult(&layout.Result{
		Page:        out,
		Orientation: c.Orientation,
		Order:       c.Order,
		Columns:     len(c.ColumnSizes),
		ColumnSizes: c.ColumnSizes,
		Tally:       c.Tally,
	}, opts.Separator)
	res.CacheInfo = CacheInfo{Hit: true, Key: key}
	return res, true
}

func (r *Runner) store(ctx context.Context, key string, lr *layout.Result) {
	data, err := json.Marshal(cachedOrder{
		Orientation: lr.Orientation,
		Order:       lr.Order,
		ColumnSizes: lr.ColumnSizes,
		Tally:       lr.Tally,
	})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLPage); err == nil {
		observability.Cache().OnCacheSet(ctx, "page", len(data))
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func newResult(lr *layout.Result, sep string) *Result {
	return &Result{
		Page:        lr.Page,
		Orientation: lr.Orientation,
		Order:       lr.Order,
		Columns:     lr.Columns,
		ColumnSizes: lr.ColumnSizes,
		Tally:       lr.Tally,
		Text:        lr.Page.Text(sep),
		Degraded:    lr.Err != nil,
		Err:         lr.Err,
		Stats:       Stats{Detections: lr.Page.Len()},
	}
}
