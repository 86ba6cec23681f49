// Package ocr models the raw output of a text-line detector for one page.
//
// # Overview
//
// A detector emits, per page, an unordered list of text lines. Each line is a
// [Detection]: a four-point [Polygon] in pixel coordinates, the recognized
// string and a confidence score. A [Page] stores these as three parallel
// sequences, matching the detector's native JSON:
//
//	{
//	  "rec_polys":  [[[10,0],[30,0],[30,200],[10,200]], ...],
//	  "rec_texts":  ["天地玄黃", ...],
//	  "rec_scores": [0.98, ...]
//	}
//
// Every mutating method on [Page] updates all three sequences together, so a
// page that starts consistent stays consistent. Pages decoded from JSON are
// not checked on load; call [Page.Validate] or let the layout engine decide
// what to do with malformed input.
//
// # Geometry
//
// [BoundingBox] is always derived from a polygon and never stored. Its
// [BoundingBox.Aspect] is width over height, with zero-height boxes reported
// as [DegenerateAspect].
//
// # Orientation
//
// [Orientation] tags a page as [Horizontal] (modern, left-to-right lines) or
// [Vertical] (traditional right-to-left columns). It marshals as
// "horizontal" or "vertical".
package ocr
