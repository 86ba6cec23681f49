package render

import (
	"context"
	"strings"
	"testing"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/ocr"
)

func threeLines() *ocr.Page {
	return ocr.NewPage(
		ocr.Detection{Polygon: ocr.Rect(80, 0, 100, 120), Text: "天地玄黃", Score: 0.99},
		ocr.Detection{Polygon: ocr.Rect(80, 130, 100, 250), Text: "宇宙洪荒", Score: 0.98},
		ocr.Detection{Polygon: ocr.Rect(40, 0, 60, 120), Text: "日月盈昃", Score: 0.5},
	)
}

func TestToDOT_Vertical(t *testing.T) {
	dot := ToDOT(threeLines(), ocr.Vertical, []int{2, 1}, Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=TB",
		"subgraph cluster_0",
		"subgraph cluster_1",
		`label="column 1"`,
		`n0 [label="0: 天地玄黃"]`,
		"n0 -> n1;",
		"n1 -> n2;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
	// The leftmost column is declared first.
	if strings.Index(dot, "cluster_1") > strings.Index(dot, "cluster_0") {
		t.Error("vertical clusters should be declared right to left")
	}
	if strings.Contains(dot, "n2 -> n0") {
		t.Error("reading order should not wrap around")
	}
}

func TestToDOT_Horizontal(t *testing.T) {
	dot := ToDOT(threeLines(), ocr.Horizontal, nil, Options{})
	if !strings.Contains(dot, "rankdir=LR") {
		t.Error("horizontal pages should lay out left to right")
	}
	if strings.Count(dot, "subgraph") != 1 || !strings.Contains(dot, `label="lines"`) {
		t.Errorf("horizontal page should have one cluster:\n%s", dot)
	}
}

func TestToDOT_BadColumnSizes(t *testing.T) {
	dot := ToDOT(threeLines(), ocr.Vertical, []int{5}, Options{})
	if strings.Count(dot, "subgraph") != 1 {
		t.Errorf("sizes that do not cover the page should collapse to one cluster:\n%s", dot)
	}
}

func TestToDOT_Empty(t *testing.T) {
	dot := ToDOT(&ocr.Page{}, ocr.Horizontal, nil, Options{})
	if strings.Contains(dot, "subgraph") || strings.Contains(dot, "->") {
		t.Errorf("empty page should produce an empty graph:\n%s", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	page := threeLines()
	page.Texts[0] = "學而時習之不亦說乎有朋自遠方來"

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"truncated", Options{LabelRunes: 4}, []string{"0: 學而時習…"}},
		{"detailed", Options{Detailed: true, LabelRunes: 20}, []string{"score: 0.99", "box: 80,0 20x120"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := fmtLabel(page, 0, tt.opts)
			for _, w := range tt.want {
				if !strings.Contains(label, w) {
					t.Errorf("fmtLabel() = %q, missing %q", label, w)
				}
			}
		})
	}
}

func TestRender_DOTPassthrough(t *testing.T) {
	got, err := Render(context.Background(), "digraph G {}", FormatDOT)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "digraph G {}" {
		t.Errorf("Render(dot) = %q", got)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"SVG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errs.Is(err, errs.ErrCodeUnsupported) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errs.GetCode(err))
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("svg without viewBox should be unchanged, got %s", got)
	}
}

func TestConvertMissingBinary(t *testing.T) {
	old := rsvgBinary
	rsvgBinary = "guji-no-such-converter"
	t.Cleanup(func() { rsvgBinary = old })

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	if _, err := ToPNG(context.Background(), svg, 0); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("ToPNG err = %v, want UNSUPPORTED", err)
	}
	if _, err := ToPDF(context.Background(), svg); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("ToPDF err = %v, want UNSUPPORTED", err)
	}
}
