package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// DefaultPNGScale is the zoom factor for PNG diagrams. Vertical pages have
// many narrow columns, so the 1x raster is hard to read.
const DefaultPNGScale = 2.0

// rsvgBinary is the librsvg converter. Tests point it elsewhere.
var rsvgBinary = "rsvg-convert"

// ToPDF converts an SVG diagram to PDF.
//
// Conversion runs librsvg, which picks up system CJK fonts for the node
// labels. Without the binary the error has code UNSUPPORTED.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convertSVG(ctx, svg, FormatPDF)
}

// ToPNG converts an SVG diagram to PNG at the given zoom. A scale of zero
// or less uses [DefaultPNGScale].
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = DefaultPNGScale
	}
	return convertSVG(ctx, svg, FormatPNG, "--zoom", fmt.Sprintf("%.2f", scale))
}

func convertSVG(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, errs.New(errs.ErrCodeUnsupported,
			"%s export needs %s (apt install librsvg2-bin, brew install librsvg)", format, rsvgBinary)
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("convert svg to %s: %w: %s", format, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("convert svg to %s: empty output", format)
	}
	return stdout.Bytes(), nil
}
