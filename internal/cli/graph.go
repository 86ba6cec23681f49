package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/guji/pkg/render"
)

// graphCommand renders the reading order of a page as a diagram.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags    orderFlags
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph [page.json]",
		Short: "Draw the reading order of a page as a graph",
		Long: `Draw the reading order of a page as a graph.

Each detection becomes a node labelled with its position and text; edges
follow the reading order. On vertical pages every column is drawn as its
own cluster, rightmost first.

DOT and SVG go to stdout unless -o is given. PNG and PDF are written next
to the input file and need rsvg-convert on PATH.`,
		Example: `  guji graph page.json > order.svg
  guji graph page.json -f dot | dot -Tpng > order.png
  guji graph page.json -f pdf --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := render.ValidateFormat(format); err != nil {
				return err
			}
			return c.runGraph(cmd, args[0], flags, format, output, render.Options{Detailed: detailed})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatSVG, "output format: dot, svg, png, pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add scores and box geometry to node labels")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, input string, flags orderFlags, format, output string, opts render.Options) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := c.orderPageWith(cmd, runner, input, flags, "")
	if err != nil {
		return err
	}

	out := statusOf(cmd)
	sp := out.spin(ctx, fmt.Sprintf("Rendering %s...", format))
	data, cacheHit, err := runner.GraphWithCacheInfo(ctx, res, format, opts)
	if err != nil {
		sp.fail("Rendering failed")
		return fmt.Errorf("graph: %w", err)
	}
	sp.stop()

	if output == "" && (format == render.FormatDOT || format == render.FormatSVG) {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if output == "" {
		output = graphOutputPath(input, format)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	out.success("Rendered %s", strings.ToUpper(format))
	out.file(output)
	out.stats(res.Stats.Detections, res.Columns, cacheHit)
	return nil
}

// graphOutputPath derives "<input>.order.<format>" next to the input, or in
// the working directory for stdin.
func graphOutputPath(input, format string) string {
	if input == "-" {
		return "page.order." + format
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".order." + format
}
