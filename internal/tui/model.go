// Package tui is the terminal front end of the editor.
package tui

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"rh-editor/internal/editor"
	"rh-editor/internal/hours"
	"rh-editor/internal/model"
	"rh-editor/internal/registry"
)

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeEdit
	modeHelp
)

type readMsg struct {
	name    string
	reading editor.Reading
	err     error
}

type writeMsg struct {
	name   string
	result editor.WriteResult
	err    error
}

type Model struct {
	svc  *editor.Service
	logs *LogBuffer
	log  *log.Logger

	filter   textinput.Model
	hours    textinput.Model
	viewport viewport.Model
	mode     mode

	// filter state owned by the view and passed to registry.Filter
	groups   []model.GroupID
	groupIdx int // 0 selects every group
	rows     []model.Equipment
	cursor   int
	selected string

	busy   bool
	status string
	ready  bool
	width  int
	height int
}

// NewModel builds the UI over svc. logs receives the editor's log output
// and logger is where the UI reports user actions.
func NewModel(svc *editor.Service, logs *LogBuffer, logger *log.Logger) Model {
	fi := textinput.New()
	fi.Placeholder = "filter by tag"
	fi.Prompt = "Filter: "
	fi.CharLimit = 64

	hi := textinput.New()
	hi.Placeholder = "0.00"
	hi.Prompt = "Hours: "
	hi.CharLimit = 12

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	m := Model{
		svc:    svc,
		logs:   logs,
		log:    logger,
		filter: fi,
		hours:  hi,
		groups: svc.Controllers().Groups(),
	}
	m.refresh()
	if !svc.Writable() {
		m.status = "configuration missing: writes disabled"
	}
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Query returns the current filter state.
func (m Model) Query() registry.Query {
	q := registry.Query{Text: m.filter.Value()}
	if m.groupIdx > 0 && m.groupIdx <= len(m.groups) {
		q.Group = m.groups[m.groupIdx-1]
	}
	return q
}

func (m Model) groupLabel() string {
	if q := m.Query(); q.Group != "" {
		return string(q.Group)
	}
	return "all"
}

// Selected returns the highlighted equipment.
func (m Model) Selected() (model.Equipment, bool) {
	if m.selected == "" {
		return model.Equipment{}, false
	}
	return m.svc.Equipment().Lookup(m.selected)
}

// refresh re-runs the filter and keeps the selection on the same name when
// it is still listed.
func (m *Model) refresh() {
	m.rows = m.svc.Equipment().Filter(m.svc.Controllers(), m.Query())
	m.cursor = 0
	for i, e := range m.rows {
		if e.Name == m.selected {
			m.cursor = i
			break
		}
	}
	m.syncSelection()
}

func (m *Model) syncSelection() {
	if len(m.rows) == 0 {
		m.selected = ""
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.selected = m.rows[m.cursor].Name
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := logPaneHeight(msg.Height)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.viewport.Style = paneStyle
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.syncLog()
		return m, nil

	case readMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "read failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("%s = %s h", msg.name, msg.reading.HoursText())
			m.hours.SetValue(msg.reading.HoursText())
		}
		m.syncLog()
		return m, nil

	case writeMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "write failed: " + msg.err.Error()
		case msg.result.ConfirmErr != nil:
			m.status = fmt.Sprintf("written %s h to %s, not confirmed: %v", hours.Format(msg.result.Hours), msg.name, msg.result.ConfirmErr)
		default:
			m.status = fmt.Sprintf("written %s h to %s", msg.result.Confirmed.HoursText(), msg.name)
			m.hours.SetValue(msg.result.Confirmed.HoursText())
		}
		m.syncLog()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeHelp:
			m.mode = modeBrowse
			return m, nil
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor--
		m.syncSelection()
	case "down", "j":
		m.cursor++
		m.syncSelection()
	case "home":
		m.cursor = 0
		m.syncSelection()
	case "end":
		m.cursor = len(m.rows) - 1
		m.syncSelection()
	case "/", "f":
		m.mode = modeFilter
		cmd := m.filter.Focus()
		return m, cmd
	case "g", "tab":
		m.groupIdx = (m.groupIdx + 1) % (len(m.groups) + 1)
		m.refresh()
		m.status = "group: " + m.groupLabel()
	case "G", "shift+tab":
		n := len(m.groups) + 1
		m.groupIdx = (m.groupIdx + n - 1) % n
		m.refresh()
		m.status = "group: " + m.groupLabel()
	case "enter", "r":
		return m.startRead()
	case "e":
		if _, ok := m.Selected(); !ok {
			m.status = "no equipment selected"
			return m, nil
		}
		m.mode = modeEdit
		cmd := m.hours.Focus()
		return m, cmd
	case "w":
		return m.startWrite()
	case "?":
		m.mode = modeHelp
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filter.Blur()
		m.mode = modeBrowse
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.hours.Blur()
		m.mode = modeBrowse
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	prev := m.hours.Value()
	var cmd tea.Cmd
	m.hours, cmd = m.hours.Update(msg)
	if !hours.AcceptsInput(m.hours.Value()) {
		m.hours.SetValue(prev)
	}
	return m, cmd
}

func (m Model) startRead() (tea.Model, tea.Cmd) {
	if m.busy {
		m.status = "busy: wait for the current operation"
		return m, nil
	}
	eq, ok := m.Selected()
	if !ok {
		m.status = "no equipment selected"
		return m, nil
	}
	m.busy = true
	m.status = "reading " + eq.Name + "..."
	m.log.Printf("TUI: read %s", eq.Name)
	return m, readCmd(m.svc, eq.Name)
}

func (m Model) startWrite() (tea.Model, tea.Cmd) {
	if m.busy {
		m.status = "busy: wait for the current operation"
		return m, nil
	}
	if !m.svc.Writable() {
		m.status = "configuration missing: writes disabled"
		return m, nil
	}
	eq, ok := m.Selected()
	if !ok {
		m.status = "no equipment selected"
		return m, nil
	}
	text := m.hours.Value()
	if _, err := hours.Parse(text); err != nil {
		m.status = fmt.Sprintf("invalid hours %q: %v", text, err)
		return m, nil
	}
	m.busy = true
	m.status = "writing " + eq.Name + "..."
	m.log.Printf("TUI: write %s h to %s", text, eq.Name)
	return m, writeCmd(m.svc, eq.Name, text)
}

func readCmd(svc *editor.Service, name string) tea.Cmd {
	return func() tea.Msg {
		r, err := svc.Read(context.Background(), name)
		return readMsg{name: name, reading: r, err: err}
	}
}

func writeCmd(svc *editor.Service, name, text string) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Write(context.Background(), name, text)
		return writeMsg{name: name, result: res, err: err}
	}
}

func (m *Model) syncLog() {
	if !m.ready || m.logs == nil {
		return
	}
	m.viewport.SetContent(m.logs.String())
	m.viewport.GotoBottom()
}
