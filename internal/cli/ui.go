package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorInk    = lipgloss.Color("255") // values
	colorSeal   = lipgloss.Color("167") // errors, the vermilion of a seal
	colorJade   = lipgloss.Color("35")  // success, cache hits
	colorAmber  = lipgloss.Color("220") // warnings, degraded pages
	colorTeal   = lipgloss.Color("36")  // headings, counts
	colorSky    = lipgloss.Color("75")  // suggested commands
	colorSilver = lipgloss.Color("245") // labels
	colorFaded  = lipgloss.Color("240") // secondary text
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorTeal)
	StyleDim       = lipgloss.NewStyle().Foreground(colorFaded)
	StyleValue     = lipgloss.NewStyle().Foreground(colorInk)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorTeal)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorAmber)

	styleLabel   = lipgloss.NewStyle().Foreground(colorSilver).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorSky)
	styleFrame   = lipgloss.NewStyle().Foreground(colorTeal)
	styleHit     = lipgloss.NewStyle().Foreground(colorJade)
	styleMiss    = lipgloss.NewStyle().Foreground(colorSilver)
)

// marks prefix status lines.
var (
	markOK   = lipgloss.NewStyle().Foreground(colorJade).Render("✓")
	markFail = lipgloss.NewStyle().Foreground(colorSeal).Render("✗")
	markWarn = lipgloss.NewStyle().Foreground(colorAmber).Render("!")
	markInfo = lipgloss.NewStyle().Foreground(colorSilver).Render("›")
	markFile = StyleDim.Render("→")
	dot      = StyleDim.Render(" · ")
)

// =============================================================================
// Status lines
// =============================================================================

// status writes human-facing progress lines. Commands send it to stderr so
// ordered JSON and text on stdout stay pipeable.
type status struct {
	w io.Writer
}

// statusOf returns the status writer for cmd, bound to its stderr.
func statusOf(cmd *cobra.Command) status {
	return status{w: cmd.ErrOrStderr()}
}

// reportOf returns a writer for listings that are the command's output.
func reportOf(cmd *cobra.Command) status {
	return status{w: cmd.OutOrStdout()}
}

func (s status) line(mark, format string, args ...any) {
	fmt.Fprintln(s.w, mark+" "+fmt.Sprintf(format, args...))
}

func (s status) success(format string, args ...any) { s.line(markOK, format, args...) }
func (s status) fail(format string, args ...any)    { s.line(markFail, format, args...) }
func (s status) info(format string, args ...any)    { s.line(markInfo, format, args...) }

func (s status) warn(format string, args ...any) {
	fmt.Fprintln(s.w, markWarn+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// detail prints an indented secondary line.
func (s status) detail(format string, args ...any) {
	fmt.Fprintln(s.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (s status) file(path string) {
	fmt.Fprintln(s.w, "  "+markFile+" "+StyleValue.Render(path))
}

func (s status) field(key, value string) {
	fmt.Fprintln(s.w, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

func (s status) heading(text string) {
	fmt.Fprintln(s.w, StyleTitle.Render(text))
}

func (s status) blank() {
	fmt.Fprintln(s.w)
}

// stats prints "n detections · m columns · cached" for one ordering run.
func (s status) stats(detections, columns int, cached bool) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d detections", detections))}
	if columns > 1 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d columns", columns)))
	}
	if cached {
		parts = append(parts, styleHit.Render("cached"))
	} else {
		parts = append(parts, styleMiss.Render("fresh"))
	}
	fmt.Fprintln(s.w, "  "+strings.Join(parts, dot))
}

// next suggests a follow-up command.
func (s status) next(description, command string) {
	fmt.Fprintln(s.w, StyleDim.Render(description+":")+" "+styleCommand.Render(command))
}
