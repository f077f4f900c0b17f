package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rh-editor/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#575B7E")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("#FAFAFA"))
	busyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	tagCol   = lipgloss.NewStyle().Width(32).Padding(0, 1)
	ctrlCol  = lipgloss.NewStyle().Width(8).Padding(0, 1)
	dbCol    = lipgloss.NewStyle().Width(8).Align(lipgloss.Right).Padding(0, 1)
	offCol   = lipgloss.NewStyle().Width(8).Align(lipgloss.Right).Padding(0, 1)
	hoursCol = lipgloss.NewStyle().Width(12).Align(lipgloss.Right).Padding(0, 1)
)

const helpText = `Keys
  up/down, j/k   move selection
  / or f         edit filter (enter/esc to leave)
  g / G          next / previous controller group
  enter or r     read hours of the selected equipment
  e              edit hours (enter/esc to leave)
  w              write the edited hours
  pgup/pgdown    scroll the log
  ?              this help
  q              quit

press any key to return`

// logPaneHeight splits the terminal between table and log.
func logPaneHeight(total int) int {
	h := total / 3
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) tableHeight() int {
	if m.height == 0 {
		return 15
	}
	// title, filter line, header, hours line, status, help footer
	h := m.height - logPaneHeight(m.height) - 8
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) View() string {
	if m.mode == modeHelp {
		return titleStyle.Render("Maintenance hours editor") + "\n\n" + helpText
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Maintenance hours editor"))
	b.WriteString(fmt.Sprintf("  group: %s  (%d/%d)\n", m.groupLabel(), len(m.rows), m.svc.Equipment().Len()))
	b.WriteString(m.filter.View() + "\n")
	b.WriteString(m.renderTable())
	b.WriteString(m.hours.View() + "\n")
	b.WriteString(m.renderStatus() + "\n")
	if m.ready {
		b.WriteString(m.viewport.View() + "\n")
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderRow(e model.Equipment) string {
	last := "-"
	if r, ok := m.svc.LastReading(e.Name); ok {
		last = r.HoursText()
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		tagCol.Render(e.Name),
		ctrlCol.Render(e.Controller),
		dbCol.Render(fmt.Sprintf("%d", e.DBNumber)),
		offCol.Render(fmt.Sprintf("%d", e.DBOffset)),
		hoursCol.Render(last),
	)
}

func (m Model) renderTable() string {
	var b strings.Builder
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		tagCol.Render("Tag"),
		ctrlCol.Render("PLC"),
		dbCol.Render("DB"),
		offCol.Render("Offset"),
		hoursCol.Render("Hours"),
	)
	b.WriteString(headerStyle.Render(header) + "\n")
	if len(m.rows) == 0 {
		b.WriteString(helpStyle.Render("  no equipment") + "\n")
		return b.String()
	}

	h := m.tableHeight()
	start := 0
	if m.cursor >= h {
		start = m.cursor - h + 1
	}
	end := start + h
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := start; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderStatus() string {
	switch {
	case m.busy:
		return busyStyle.Render(m.status)
	case strings.Contains(m.status, "failed"), strings.HasPrefix(m.status, "invalid"), strings.HasPrefix(m.status, "configuration missing"):
		return errorStyle.Render(m.status)
	default:
		return m.status
	}
}

func (m Model) renderFooter() string {
	switch m.mode {
	case modeFilter:
		return helpStyle.Render("type to filter | enter/esc done")
	case modeEdit:
		return helpStyle.Render("hours 0..10000 | enter/esc done, then w to write")
	}
	return helpStyle.Render("r read | e edit | w write | / filter | g group | ? help | q quit")
}
