package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/ocr"
)

// editCommand groups the page correction subcommands.
func (c *CLI) editCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Correct the detections of a page file",
		Long: `Correct the detections of a page file.

Each subcommand changes one detection, addressed by its zero-based index,
and rewrites the file in place unless -o is given. The orientation tag of
an ordered page is kept; run 'guji order' again after moving boxes.`,
	}

	cmd.AddCommand(c.editRemoveCommand())
	cmd.AddCommand(c.editTextCommand())
	cmd.AddCommand(c.editResizeCommand())
	cmd.AddCommand(c.editReplaceCommand())

	return cmd
}

func (c *CLI) editRemoveCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "remove [page.json] [index]",
		Short: "Delete a detection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return c.editPage(cmd, args[0], output, func(p *ocr.Page) error {
				return p.Remove(i)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

func (c *CLI) editTextCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "text [page.json] [index] [text]",
		Short: "Overwrite the recognized text of a detection",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return c.editPage(cmd, args[0], output, func(p *ocr.Page) error {
				return p.SetText(i, args[2])
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

func (c *CLI) editResizeCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "resize [page.json] [index] [xmin] [ymin] [xmax] [ymax]",
		Short: "Replace a detection's box with an axis-aligned rectangle",
		Long: fmt.Sprintf(`Replace a detection's box with an axis-aligned rectangle.

Rectangles narrower or shorter than %.0f pixels are rejected.`, ocr.MinBoxSize),
		Args: cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			var v [4]float64
			for k, s := range args[2:] {
				if v[k], err = strconv.ParseFloat(s, 64); err != nil {
					return errs.Wrap(errs.ErrCodeInvalidInput, err, "coordinate %q", s)
				}
			}
			box := ocr.BoundingBox{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}
			return c.editPage(cmd, args[0], output, func(p *ocr.Page) error {
				return p.ResizeBox(i, box)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

func (c *CLI) editReplaceCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "replace [page.json] [index] [polygon]",
		Short:   "Replace a detection's polygon",
		Example: `  guji edit replace page.json 3 '[[10,0],[40,0],[40,200],[10,200]]'`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			var poly ocr.Polygon
			if err := json.Unmarshal([]byte(args[2]), &poly); err != nil {
				return errs.Wrap(errs.ErrCodeMalformedGeometry, err, "parse polygon")
			}
			return c.editPage(cmd, args[0], output, func(p *ocr.Page) error {
				return p.Replace(i, poly)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}

// editPage loads the page at path, applies fn and writes the result to
// output, or back to path. Nothing is written when fn fails.
func (c *CLI) editPage(cmd *cobra.Command, path, output string, fn func(*ocr.Page) error) error {
	o, err := readOrderedArg(cmd, path)
	if err != nil {
		return err
	}
	before := o.Page.Len()
	if err := fn(&o.Page); err != nil {
		return err
	}

	if output == "" && path != "-" {
		output = path
	}
	w, closeFn, err := createOutput(cmd, output)
	if err != nil {
		return err
	}
	if err := ocr.WritePage(w, &o.Page, o.Orientation); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	c.Logger.Debug("edited page", "path", path, "before", before, "after", o.Page.Len())
	if output != "" && output != "-" {
		out := statusOf(cmd)
		out.success("Saved %d detections", o.Page.Len())
		out.file(output)
	}
	return nil
}

// readOrderedArg is readPageArg for commands that keep the orientation tag.
func readOrderedArg(cmd *cobra.Command, path string) (*ocr.Ordered, error) {
	if path == "-" {
		o, err := ocr.ReadOrdered(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return o, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	o, err := ocr.ReadOrdered(f)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", path, err)
	}
	return o, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidIndex, "index %q is not a number", s)
	}
	return i, nil
}
