package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorFaded)
)

// =============================================================================
// PageModel - Interactive reading-order viewer
// =============================================================================

// PageModel is the bubbletea model that steps through an ordered page one
// detection at a time.
type PageModel struct {
	Result *pipeline.Result
	Cursor int
	Height int
	Offset int

	// groups maps each reading position to its column (or line) number.
	groups []int
	starts []int
}

// NewPageModel creates a viewer for res.
func NewPageModel(res *pipeline.Result) PageModel {
	m := PageModel{Result: res, Height: 15}
	for g, texts := range columnGroups(res) {
		m.starts = append(m.starts, len(m.groups))
		for range texts {
			m.groups = append(m.groups, g)
		}
	}
	return m
}

func (m PageModel) Init() tea.Cmd {
	return nil
}

func (m PageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := m.Result.Page.Len()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(m.Cursor - 1)
		case "down", "j":
			m.move(m.Cursor + 1)
		case "left", "h":
			m.move(m.groupStart(-1))
		case "right", "l":
			m.move(m.groupStart(+1))
		case "home", "g":
			m.move(0)
		case "end", "G":
			m.move(n - 1)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
		m.move(m.Cursor)
	}
	return m, nil
}

// move sets the cursor, clamped to the page, and scrolls it into view.
func (m *PageModel) move(i int) {
	n := m.Result.Page.Len()
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	m.Cursor = i
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// groupStart returns the first position of the group delta steps away from
// the cursor's.
func (m PageModel) groupStart(delta int) int {
	if len(m.groups) == 0 {
		return 0
	}
	g := m.groups[m.Cursor] + delta
	if g < 0 {
		return 0
	}
	if g >= len(m.starts) {
		return len(m.groups) - 1
	}
	return m.starts[g]
}

func (m PageModel) View() string {
	var b strings.Builder
	res := m.Result
	page := res.Page

	b.WriteString(columnsSummary(res))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ step  ←/→ column  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if page.Len() == 0 {
		b.WriteString(listDimStyle.Render("  no detections"))
		return b.String()
	}

	end := min(m.Offset+m.Height, page.Len())
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			strconv.Itoa(i),
			strconv.Itoa(m.groups[i] + 1),
			fmt.Sprintf("%.2f", page.Scores[i]),
			page.Texts[i],
		})
	}

	label := "Col"
	if res.Orientation != ocr.Vertical || res.Degraded {
		label = "Line"
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorSilver).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaded)).
		Headers("", "#", label, "Score", "Text").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			base := lipgloss.NewStyle()
			if col == 3 {
				base = base.Foreground(colorSilver)
			}
			if idx == m.Cursor {
				return base.Foreground(colorJade).Bold(true)
			}
			if col == 4 {
				return base.Foreground(colorInk)
			}
			return base.Foreground(colorFaded)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	box := page.Polygons[m.Cursor].Bounds()
	b.WriteString(listSelectedStyle.Render(fmt.Sprintf("  detector index %d", res.Order[m.Cursor])))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  box %.0f,%.0f %.0fx%.0f", box.XMin, box.YMin, box.Width(), box.Height())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, page.Len())))

	return b.String()
}
