package layout

import (
	"math"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// Config holds the tunable thresholds of the layout engine.
type Config struct {
	// VerticalAspect is the width/height ratio below which a box counts as a
	// vertical line. Default: 0.9
	VerticalAspect float64 `toml:"vertical_aspect" json:"vertical_aspect" yaml:"vertical_aspect"`

	// HorizontalAspect is the width/height ratio above which a box counts as
	// a horizontal line. Boxes between the two aspects are ambiguous and
	// take no part in the vote. Default: 1.1
	HorizontalAspect float64 `toml:"horizontal_aspect" json:"horizontal_aspect" yaml:"horizontal_aspect"`

	// AreaMargin is how much larger one side's total area must be to win the
	// vote outright. Default: 1.05
	AreaMargin float64 `toml:"area_margin" json:"area_margin" yaml:"area_margin"`

	// MinThreshold is the floor, in pixels, of the column merge distance.
	// Default: 3
	MinThreshold float64 `toml:"min_threshold" json:"min_threshold" yaml:"min_threshold"`

	// SpanRatio scales the horizontal spread of right edges into a merge
	// distance. Default: 0.02
	SpanRatio float64 `toml:"span_ratio" json:"span_ratio" yaml:"span_ratio"`

	// WidthRatio scales the mean box width into a merge distance.
	// Default: 0.2
	WidthRatio float64 `toml:"width_ratio" json:"width_ratio" yaml:"width_ratio"`
}

// DefaultConfig returns the thresholds tuned for scanned classical texts.
func DefaultConfig() Config {
	return Config{
		VerticalAspect:   0.9,
		HorizontalAspect: 1.1,
		AreaMargin:       1.05,
		MinThreshold:     3,
		SpanRatio:        0.02,
		WidthRatio:       0.2,
	}
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.VerticalAspect == 0 {
		c.VerticalAspect = d.VerticalAspect
	}
	if c.HorizontalAspect == 0 {
		c.HorizontalAspect = d.HorizontalAspect
	}
	if c.AreaMargin == 0 {
		c.AreaMargin = d.AreaMargin
	}
	if c.MinThreshold == 0 {
		c.MinThreshold = d.MinThreshold
	}
	if c.SpanRatio == 0 {
		c.SpanRatio = d.SpanRatio
	}
	if c.WidthRatio == 0 {
		c.WidthRatio = d.WidthRatio
	}
}

// Validate reports INVALID_CONFIG for thresholds the engine cannot use.
func (c Config) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"vertical_aspect", c.VerticalAspect},
		{"horizontal_aspect", c.HorizontalAspect},
		{"area_margin", c.AreaMargin},
		{"min_threshold", c.MinThreshold},
		{"span_ratio", c.SpanRatio},
		{"width_ratio", c.WidthRatio},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "layout.%s must be a non-negative number, got %v", f.name, f.v)
		}
	}
	if c.VerticalAspect > c.HorizontalAspect {
		return errs.New(errs.ErrCodeInvalidConfig,
			"layout.vertical_aspect (%v) exceeds layout.horizontal_aspect (%v)", c.VerticalAspect, c.HorizontalAspect)
	}
	if c.AreaMargin < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "layout.area_margin must be at least 1, got %v", c.AreaMargin)
	}
	return nil
}
