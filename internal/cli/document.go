package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/store"
)

// docCommand groups the document store subcommands.
func (c *CLI) docCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"document"},
		Short:   "Manage stored per-document results",
		Long: `Manage stored per-document results.

A document holds the ordered OCR result of every page of one scanned PDF,
together with the punctuated text, vernacular translation and explanation
produced for it. Documents live in the configured store (JSON files under
storage_dir by default, or MongoDB).`,
	}

	cmd.AddCommand(c.docListCommand())
	cmd.AddCommand(c.docShowCommand())
	cmd.AddCommand(c.docSaveCommand())
	cmd.AddCommand(c.docImportCommand())
	cmd.AddCommand(c.docDeleteCommand())

	return cmd
}

func (c *CLI) docListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				statusOf(cmd).info("No documents stored")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (c *CLI) docShowCommand() *cobra.Command {
	var (
		page   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.newWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			doc, err := ws.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if page >= 0 {
				rec, ok := doc.Page(page)
				if !ok {
					return errs.New(errs.ErrCodeNotFound, "%s has no page %d", args[0], page)
				}
				doc = &store.Document{Name: doc.Name, UpdatedAt: doc.UpdatedAt, Revision: doc.Revision}
				doc.SetPage(page, rec)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(doc)
			}
			printDocument(reportOf(cmd), doc)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", -1, "show only this page (zero-based)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON")

	return cmd
}

func (c *CLI) docSaveCommand() *cobra.Command {
	var update store.PageRecord

	cmd := &cobra.Command{
		Use:   "save [name] [page] [ordered.json]",
		Short: "Store results for one page of a document",
		Long: `Store results for one page of a document.

The ordered page file, if given, replaces the stored OCR result. Text flags
replace the matching stored fields; fields not given are kept.`,
		Example: `  guji order scan-3.json -o ordered.json
  guji doc save 論語.pdf 3 ordered.json
  guji doc save 論語.pdf 3 --punctuated "子曰：學而時習之，不亦說乎？"`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parsePageNumber(args[1])
			if err != nil {
				return err
			}
			if len(args) == 3 {
				o, err := readOrderedArg(cmd, args[2])
				if err != nil {
					return err
				}
				update.OCR = o
			}
			if update == (store.PageRecord{}) {
				return errs.New(errs.ErrCodeInvalidInput, "nothing to save: give a page file or a text flag")
			}

			ws, err := c.newWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.SavePage(cmd.Context(), args[0], n, update); err != nil {
				return err
			}
			statusOf(cmd).success("Saved page %d of %s", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&update.Punctuated, "punctuated", "", "punctuated text")
	cmd.Flags().StringVar(&update.Vernacular, "vernacular", "", "vernacular translation")
	cmd.Flags().StringVar(&update.Explanation, "explain", "", "explanation")

	return cmd
}

func (c *CLI) docImportCommand() *cobra.Command {
	var (
		flags       orderFlags
		first       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "import [name] [page.json...]",
		Short: "Order OCR pages and store them as a document's pages",
		Long: `Order OCR pages and store them as a document's pages.

Pages are ordered concurrently and stored as consecutive page numbers
starting at --first. A page that cannot be ordered is stored in detector
order and reported.`,
		Example: `  guji doc import 論語.pdf scans/page-*.json`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if first < 0 {
				return errs.New(errs.ErrCodeInvalidIndex, "first page %d out of range", first)
			}
			return c.runImport(cmd, args[0], args[1:], flags, first, concurrency)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&first, "first", 0, "page number of the first file")
	cmd.Flags().IntVarP(&concurrency, "jobs", "j", 0, "pages ordered at once (default 4)")

	return cmd
}

func (c *CLI) runImport(cmd *cobra.Command, name string, paths []string, flags orderFlags, first, concurrency int) error {
	ctx := cmd.Context()
	prog := newProgress(loggerFromContext(ctx))

	pages := make([]*ocr.Page, len(paths))
	for i, path := range paths {
		p, err := readPageArg(cmd, path)
		if err != nil {
			return err
		}
		pages[i] = p
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.pipelineOptions()
	opts.Orientation = flags.orientation
	opts.Refresh = flags.refresh
	opts.Concurrency = concurrency

	out := statusOf(cmd)
	sp := out.spin(ctx, fmt.Sprintf("Ordering %d pages...", len(pages)))
	results, err := runner.OrderDocument(ctx, pages, opts)
	if err != nil {
		sp.fail("Ordering failed")
		return err
	}
	sp.stop()

	ws, err := c.newWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	degraded := 0
	for i, res := range results {
		if res.Degraded {
			degraded++
			out.warn("%s left in detector order: %s", paths[i], errs.UserMessage(res.Err))
		}
		if err := ws.SavePage(ctx, name, first+i, store.PageRecord{OCR: res.Ordered()}); err != nil {
			return fmt.Errorf("save page %d: %w", first+i, err)
		}
	}

	prog.done("imported document", "name", name, "pages", len(results), "degraded", degraded)
	out.success("Imported %d pages into %s", len(results), name)
	if degraded > 0 {
		out.detail("%d pages unordered", degraded)
	}
	out.next("Inspect", "guji doc show "+name)
	return nil
}

func (c *CLI) docDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.newWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			statusOf(cmd).success("Deleted %s", args[0])
			return nil
		},
	}
}

// printDocument prints each stored page with its texts.
func printDocument(out status, doc *store.Document) {
	out.heading(doc.Name)
	if !doc.UpdatedAt.IsZero() {
		out.field("Updated", doc.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if doc.Revision != "" {
		out.field("Revision", doc.Revision)
	}

	for _, n := range doc.PageNumbers() {
		rec, _ := doc.Page(n)
		out.blank()
		fmt.Fprintln(out.w, StyleHighlight.Render("Page "+strconv.Itoa(n)))
		if rec.OCR != nil {
			out.field("Orientation", rec.OCR.Orientation.String())
			out.field("Detections", strconv.Itoa(rec.OCR.Page.Len()))
			out.field("Text", rec.OCR.Page.Text(""))
		}
		if rec.Punctuated != "" {
			out.field("Punctuated", rec.Punctuated)
		}
		if rec.Vernacular != "" {
			out.field("Vernacular", rec.Vernacular)
		}
		if rec.Explanation != "" {
			out.field("Explanation", rec.Explanation)
		}
	}
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errs.New(errs.ErrCodeInvalidIndex, "page %q must be a non-negative number", s)
	}
	return n, nil
}
