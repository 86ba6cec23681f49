package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/pipeline"
)

// orderFlags are shared by every command that orders a page.
type orderFlags struct {
	noCache     bool
	refresh     bool
	orientation string
}

func (f *orderFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().StringVar(&f.orientation, "orientation", "", "force horizontal or vertical instead of classifying")
}

// orderPage reads the page at path and orders it with the configured
// thresholds. A degraded page is not an error; it comes back unordered.
func (c *CLI) orderPage(cmd *cobra.Command, path string, f orderFlags, sep string) (*pipeline.Result, error) {
	runner, err := c.newRunner(cmd.Context(), f.noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	return c.orderPageWith(cmd, runner, path, f, sep)
}

func (c *CLI) orderPageWith(cmd *cobra.Command, runner *pipeline.Runner, path string, f orderFlags, sep string) (*pipeline.Result, error) {
	page, err := readPageArg(cmd, path)
	if err != nil {
		return nil, err
	}

	opts := c.pipelineOptions()
	opts.Orientation = f.orientation
	opts.Refresh = f.refresh
	opts.Separator = sep

	res, err := runner.Order(cmd.Context(), page, opts)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", path, err)
	}
	return res, nil
}

// =============================================================================
// order
// =============================================================================

func (c *CLI) orderCommand() *cobra.Command {
	var (
		flags  orderFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "order [page.json]",
		Short: "Reorder a page's detections into reading order",
		Long: `Reorder a page's detections into reading order.

The page is classified as vertical or horizontal from the shape of its
boxes. Vertical pages are grouped into columns read right to left, each
column top to bottom. Horizontal pages are read top to bottom, left to
right. The ordered page is written as JSON with an "orientation" field.

Use '-' to read the page from stdin. Results are cached locally.`,
		Example: `  guji order page.json -o ordered.json
  guji order page.json --orientation vertical
  cat page.json | guji order -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.orderPage(cmd, args[0], flags, "")
			if err != nil {
				return err
			}

			w, closeFn, err := createOutput(cmd, output)
			if err != nil {
				return err
			}
			if err := ocr.WritePage(w, res.Page, res.Orientation); err != nil {
				closeFn()
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}

			if output == "" || output == "-" {
				return nil
			}
			out := statusOf(cmd)
			if res.Degraded {
				out.warn("Page left in detector order: %s", errs.UserMessage(res.Err))
			} else {
				out.success("Ordered %s page", res.Orientation)
			}
			out.file(output)
			out.stats(res.Stats.Detections, res.Columns, res.CacheInfo.Hit)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

// =============================================================================
// text
// =============================================================================

func (c *CLI) textCommand() *cobra.Command {
	var (
		flags orderFlags
		sep   string
	)

	cmd := &cobra.Command{
		Use:   "text [page.json]",
		Short: "Print a page's recognized text in reading order",
		Long: `Print a page's recognized text in reading order.

Detections are concatenated without a separator, the way classical text is
written. Use --sep to put one between them, for example --sep $'\n' for one
line per column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.orderPage(cmd, args[0], flags, sep)
			if err != nil {
				return err
			}
			if res.Degraded {
				c.Logger.Warn("page left in detector order", "reason", errs.UserMessage(res.Err))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&sep, "sep", "", "separator placed between detections")

	return cmd
}

// =============================================================================
// columns
// =============================================================================

func (c *CLI) columnsCommand() *cobra.Command {
	var flags orderFlags

	cmd := &cobra.Command{
		Use:   "columns [page.json]",
		Short: "Show the columns or lines found on a page",
		Long: `Show the columns or lines found on a page as a table.

Vertical pages list one row per column in reading order. Horizontal pages
list one row per detection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.orderPage(cmd, args[0], flags, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), columnsSummary(res))
			fmt.Fprintln(cmd.OutOrStdout(), columnsTable(res))
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// columnsSummary is the one-line header above the columns table.
func columnsSummary(res *pipeline.Result) string {
	line := StyleTitle.Render(res.Orientation.String()) + StyleDim.Render(" · ") +
		StyleNumber.Render(strconv.Itoa(res.Stats.Detections)) + StyleDim.Render(" detections")
	if res.Orientation == ocr.Vertical {
		line += StyleDim.Render(" · ") + StyleNumber.Render(strconv.Itoa(res.Columns)) + StyleDim.Render(" columns")
	}
	if res.Degraded {
		line += StyleDim.Render(" · ") + StyleWarning.Render("unordered: "+errs.UserMessage(res.Err))
	}
	return line
}

// columnGroups splits the ordered texts into table rows: one per column on
// a vertical page, one per detection otherwise.
func columnGroups(res *pipeline.Result) [][]string {
	texts := res.Page.Texts
	if res.Orientation != ocr.Vertical || res.Degraded {
		groups := make([][]string, len(texts))
		for i, t := range texts {
			groups[i] = []string{t}
		}
		return groups
	}

	groups := make([][]string, 0, len(res.ColumnSizes))
	start := 0
	for _, n := range res.ColumnSizes {
		groups = append(groups, texts[start:start+n])
		start += n
	}
	return groups
}

func columnsTable(res *pipeline.Result) string {
	label := "Column"
	if res.Orientation != ocr.Vertical || res.Degraded {
		label = "Line"
	}

	rows := [][]string{}
	for i, g := range columnGroups(res) {
		rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(len(g)), strings.Join(g, " ")})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorSilver).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaded)).
		Headers(label, "Lines", "Text").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col < 2:
				return lipgloss.NewStyle().Foreground(colorTeal).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorInk).Padding(0, 1)
		}).
		Render()
}
