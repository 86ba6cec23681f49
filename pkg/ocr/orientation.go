package ocr

import (
	"strings"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// Orientation is the page-level layout direction.
type Orientation int

const (
	// Horizontal pages read top line first, left to right within a line.
	// It is the zero value and the default for empty or undecidable pages.
	Horizontal Orientation = iota
	// Vertical pages read in columns, right to left, top to bottom.
	Vertical
)

// String returns "horizontal" or "vertical".
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseOrientation parses the textual form, case-insensitively.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	}
	return Horizontal, errs.New(errs.ErrCodeInvalidOrientation, "invalid orientation: %q (must be horizontal or vertical)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(text []byte) error {
	v, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
