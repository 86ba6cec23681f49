// Package pkg provides the core libraries for guji, a reading-order engine for
// OCR output of classical Chinese pages.
//
// # Overview
//
// OCR detectors emit text lines in whatever order they found them. Classical
// pages are usually set in vertical columns read from right to left, and the
// detector order rarely matches. guji decides each page's orientation from the
// shape of its boxes, groups vertical lines into columns and returns the
// detections in reading order. The pkg directory is organized into four areas:
//
//  1. [ocr] and [layout] - Domain logic (page model, orientation, columns)
//  2. [pipeline] - Orchestration (cache lookup, ordering, hooks)
//  3. [render] - Reading-order diagrams (DOT, SVG, PNG, PDF)
//  4. [cache], [store] and [config] - Infrastructure
//
// # Architecture
//
// The typical data flow through guji:
//
//	OCR result JSON (rec_polys, rec_texts, rec_scores)
//	         ↓
//	    [ocr] package (decode + validate)
//	         ↓
//	    [layout] package (classify orientation, cluster columns, sort)
//	         ↓
//	    [pipeline] package (cache, hooks, worker pool)
//	         ↓
//	    ordered JSON, plain text or a diagram
//
// # Quick Start
//
// Order a page read from disk:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/guji/pkg/cache"
//	    "github.com/matzehuels/guji/pkg/ocr"
//	    "github.com/matzehuels/guji/pkg/pipeline"
//	)
//
//	page, _ := ocr.ReadPageFile("page.json")
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(64), nil, nil)
//	res, _ := runner.Order(context.Background(), page, pipeline.Options{})
//
//	fmt.Println(res.Orientation, res.Columns)
//	fmt.Println(res.Text)
//
// Without a cache, call the engine directly:
//
//	res := layout.New(layout.DefaultConfig()).Order(page)
//	if res.Degraded() {
//	    // res.Order is the identity and res.Err says why
//	}
//
// # Main Packages
//
// ## Core Domain Logic
//
// [ocr] - Detections, polygons and bounding boxes, the parallel-array page
// model and its JSON wire form. Editing operations (remove, replace, resize,
// set text) keep the three sequences aligned.
//
// [layout] - The reading-order engine. Orientation is voted by box area with
// a count fallback, vertical boxes are clustered into columns by their right
// edges, and the page is sorted right to left then top to bottom.
//
// [perm] - Permutation helpers shared by the engine and the page model.
//
// ## Visualization
//
// [render] - Reading-order diagrams through Graphviz, one cluster per column.
// SVG output can be converted to PNG or PDF.
//
// ## Infrastructure
//
// [pipeline] - Ordering runs used by both the CLI and the HTTP server. Results
// are cached by a hash of the page and the layout thresholds. Degraded pages
// are never cached.
//
// [cache] - Byte caches: file, in-memory LRU, Redis and a null cache, plus
// key scoping and a fixed-TTL wrapper.
//
// [store] - Document persistence (ordered pages with their punctuated and
// vernacular renderings) on the filesystem, MongoDB or PostgreSQL, fronted
// by a bounded [store.Workspace].
//
// [config] - TOML or YAML configuration with environment overrides.
//
// [observability] - Hook registry for ordering, cache and HTTP events.
//
// [errors] - Coded errors shared by every package.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [ocr]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/ocr
// [layout]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/layout
// [perm]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/perm
// [render]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/store
// [store.Workspace]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/store#Workspace
// [config]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/guji/pkg/errors
package pkg
