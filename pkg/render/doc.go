// Package render draws the reading order of a page as a diagram.
//
// # Overview
//
// [ToDOT] turns an ordered page into Graphviz DOT source: one node per
// detection, one cluster per column, and an edge from each detection to the
// one read after it. Following the edges from node 0 reads the page.
//
//	dot := render.ToDOT(res.Page, res.Orientation, res.ColumnSizes, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Formats
//
// [Render] dispatches on [FormatDOT], [FormatSVG], [FormatPNG] and
// [FormatPDF]. SVG is rendered in process with
// [github.com/goccy/go-graphviz]; PNG and PDF convert that SVG with the
// external rsvg-convert tool from librsvg.
package render
