// Package layout reconstructs the reading order of an OCR page.
//
// # Overview
//
// A text-line detector returns the lines of a page in whatever order it
// found them. Classical Chinese pages come in two layouts: modern pages read
// in horizontal lines from the top, and traditional pages read in vertical
// columns from the right edge of the page toward the left. The engine
// works in three steps:
//
//  1. Classify the page orientation from the shapes of all boxes.
//  2. On vertical pages, cluster the boxes into columns by their right edges.
//  3. Sort: horizontal pages by top edge then left edge; vertical pages
//     column by column, rightmost first, each column by top edge.
//
// # Orientation
//
// Each box votes by aspect ratio: narrower than [Config.VerticalAspect] is
// vertical, wider than [Config.HorizontalAspect] is horizontal, anything in
// between abstains. The side whose total box area exceeds the other's by
// [Config.AreaMargin] wins; otherwise the side with more boxes wins, and a
// tie reads as horizontal. Area weighting keeps a few long horizontal
// captions from flipping a page of short vertical columns.
//
// # Columns
//
// Traditional columns are ragged at the bottom but aligned at the right, so
// boxes are grouped by right edge. See [Config.ClusterColumns].
//
// # Failure
//
// [Sequencer.Order] never returns an error. Malformed input comes back
// unordered with the reason in [Result.Err]:
//
//	res := layout.New(layout.DefaultConfig()).Order(page)
//	if res.Degraded() {
//	    log.Warn("page left in detector order", "err", res.Err)
//	}
//	fmt.Println(res.Page.Text(""))
//
// Every detection is kept. Boxes whose shape disagrees with the page
// orientation are ordered with the rest rather than dropped.
package layout
