package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/guji/pkg/cache"
	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/render"
)

// Graph renders the reading-order diagram of res in format, with caching.
func (r *Runner) Graph(ctx context.Context, res *Result, format string, opts render.Options) ([]byte, error) {
	data, _, err := r.GraphWithCacheInfo(ctx, res, format, opts)
	return data, err
}

// GraphWithCacheInfo renders the diagram and reports whether it came from
// the cache.
func (r *Runner) GraphWithCacheInfo(ctx context.Context, res *Result, format string, opts render.Options) ([]byte, bool, error) {
	if err := render.ValidateFormat(format); err != nil {
		return nil, false, err
	}

	orderHash, err := hashOrdered(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize result for cache key: %w", err)
	}
	cacheKey := r.Keyer.GraphKey(orderHash, cache.GraphKeyOpts{Format: format, Detailed: opts.Detailed})

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		return data, true, nil
	}

	dot := render.ToDOT(res.Page, res.Orientation, res.ColumnSizes, opts)
	data, err := render.Render(ctx, dot, format)
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", format, err)
	}

	_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
	return data, false, nil
}

// hashOrdered hashes everything the diagram depends on.
func hashOrdered(res *Result) (string, error) {
	page, err := ocr.MarshalPage(res.Page)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(struct {
		Page        json.RawMessage `json:"page"`
		Orientation ocr.Orientation `json:"orientation"`
		ColumnSizes []int           `json:"column_sizes"`
	}{page, res.Orientation, res.ColumnSizes})
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
