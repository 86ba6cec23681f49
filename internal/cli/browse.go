package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// browseCommand opens the interactive reading-order viewer.
func (c *CLI) browseCommand() *cobra.Command {
	var flags orderFlags

	cmd := &cobra.Command{
		Use:   "browse [page.json]",
		Short: "Step through a page in reading order",
		Long: `Step through a page in reading order.

Opens an interactive viewer listing the detections in the order they are
read, with their column, score and box. Use it to check a page before
correcting it with 'guji edit'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" {
				return errs.New(errs.ErrCodeUnsupported, "browse needs a page file; stdin is used by the viewer")
			}
			res, err := c.orderPage(cmd, args[0], flags, "")
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewPageModel(res), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run viewer: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
