package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/guji/pkg/ocr"
)

// DefaultLabelRunes is the number of characters of a detection's text shown
// in its node label.
const DefaultLabelRunes = 12

// Options configures diagram generation.
type Options struct {
	// Detailed adds the score and bounding box to node labels.
	Detailed bool

	// LabelRunes caps the text shown per node. Zero uses DefaultLabelRunes.
	LabelRunes int
}

// ToDOT converts an ordered page to Graphviz DOT source.
//
// columns holds the size of each column in reading order, as returned by
// the layout engine; a nil or inconsistent slice puts every detection in a
// single cluster. Vertical pages lay their clusters out right to left.
func ToDOT(page *ocr.Page, o ocr.Orientation, columns []int, opts Options) string {
	if opts.LabelRunes <= 0 {
		opts.LabelRunes = DefaultLabelRunes
	}
	n := len(page.Texts)
	if !sumsTo(columns, n) {
		columns = nil
		if n > 0 {
			columns = []int{n}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if o == ocr.Vertical {
		buf.WriteString("  rankdir=TB;\n")
	} else {
		buf.WriteString("  rankdir=LR;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.3;\n")
	buf.WriteString("  nodesep=0.3;\n")
	fmt.Fprintf(&buf, "  label=%q;\n", o.String())
	buf.WriteString("\n")

	for _, c := range clusterOrder(columns, o) {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", c.index)
		fmt.Fprintf(&buf, "    label=%q;\n", clusterLabel(o, c.index))
		buf.WriteString("    style=dashed;\n")
		for i := c.start; i < c.start+c.n; i++ {
			fmt.Fprintf(&buf, "    n%d [label=%q];\n", i, fmtLabel(page, i, opts))
		}
		buf.WriteString("  }\n")
	}

	if n > 1 {
		buf.WriteString("\n")
	}
	for i := 0; i+1 < n; i++ {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", i, i+1)
	}

	buf.WriteString("}\n")
	return buf.String()
}

type cluster struct {
	index, start, n int
}

// clusterOrder returns the clusters in declaration order. Graphviz places
// earlier clusters further left, so a vertical page declares its last
// column first.
func clusterOrder(columns []int, o ocr.Orientation) []cluster {
	out := make([]cluster, len(columns))
	start := 0
	for i, n := range columns {
		out[i] = cluster{index: i, start: start, n: n}
		start += n
	}
	if o == ocr.Vertical {
		slices.Reverse(out)
	}
	return out
}

func clusterLabel(o ocr.Orientation, i int) string {
	if o == ocr.Vertical {
		return fmt.Sprintf("column %d", i+1)
	}
	return "lines"
}

func fmtLabel(page *ocr.Page, i int, opts Options) string {
	label := fmt.Sprintf("%d: %s", i, truncate(page.Texts[i], opts.LabelRunes))
	if !opts.Detailed {
		return label
	}

	parts := []string{label}
	if i < len(page.Scores) {
		parts = append(parts, fmt.Sprintf("score: %.2f", page.Scores[i]))
	}
	if i < len(page.Polygons) && page.Polygons[i].Validate() == nil {
		b := page.Polygons[i].Bounds()
		parts = append(parts, fmt.Sprintf("box: %.0f,%.0f %.0fx%.0f", b.XMin, b.YMin, b.Width(), b.Height()))
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

func sumsTo(sizes []int, n int) bool {
	if len(sizes) == 0 {
		return false
	}
	total := 0
	for _, s := range sizes {
		if s <= 0 {
			return false
		}
		total += s
	}
	return total == n
}
