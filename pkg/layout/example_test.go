package layout_test

import (
	"fmt"

	"github.com/matzehuels/guji/pkg/layout"
	"github.com/matzehuels/guji/pkg/ocr"
)

func ExampleSequencer_Order() {
	// Two traditional columns, detected out of order.
	page := ocr.NewPage(
		ocr.Detection{Polygon: ocr.Rect(30, 0, 50, 120), Text: "宇宙洪荒", Score: 0.97},
		ocr.Detection{Polygon: ocr.Rect(80, 120, 100, 240), Text: "玄黃", Score: 0.95},
		ocr.Detection{Polygon: ocr.Rect(80, 0, 100, 120), Text: "天地", Score: 0.99},
	)

	res := layout.New(layout.DefaultConfig()).Order(page)
	fmt.Println("Orientation:", res.Orientation)
	fmt.Println("Columns:", res.Columns)
	fmt.Println("Order:", res.Order)
	fmt.Println("Text:", res.Page.Text(""))
	// Output:
	// Orientation: vertical
	// Columns: 2
	// Order: [2 1 0]
	// Text: 天地玄黃宇宙洪荒
}

func ExampleSequencer_Order_degraded() {
	page := ocr.NewPage(
		ocr.Detection{Polygon: ocr.Rect(0, 20, 80, 30), Text: "second"},
		ocr.Detection{Polygon: ocr.Polygon{{X: 0, Y: 0}, {X: 80, Y: 10}}, Text: "broken"},
	)

	res := layout.New(layout.DefaultConfig()).Order(page)
	fmt.Println("Degraded:", res.Degraded())
	fmt.Println("Order:", res.Order)
	fmt.Println("Orientation:", res.Orientation)
	// Output:
	// Degraded: true
	// Order: [0 1]
	// Orientation: horizontal
}

func ExampleConfig_Classify() {
	cfg := layout.DefaultConfig()
	boxes := []ocr.BoundingBox{
		{XMin: 0, YMin: 0, XMax: 400, YMax: 100},
		{XMin: 0, YMin: 120, XMax: 20, YMax: 200},
		{XMin: 30, YMin: 120, XMax: 50, YMax: 200},
	}
	fmt.Println(cfg.Classify(boxes))
	fmt.Println(cfg.Tally(boxes))
	// Output:
	// horizontal
	// vertical=2 (area 3200) horizontal=1 (area 40000) ambiguous=0
}
