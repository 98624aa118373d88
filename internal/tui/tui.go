// Package tui is the interactive browser over a session's libraries and
// tables.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amigodata/amigosas/internal/manager"
	"github.com/amigodata/amigosas/pkg/models"
)

type viewMode int

const (
	libraryView viewMode = iota
	tableView
)

type model struct {
	mgr           *manager.SessionManager
	libraries     []string
	tables        []models.Table
	currentMode   viewMode
	libCursor     int
	tableCursor   int
	selectedLib   string
	viewport      viewport.Model
	leftViewport  viewport.Model // tables list in split view
	rightViewport viewport.Model // sample preview in split view
	sampleCache   map[string]*models.Frame
	indicator     *LoadingIndicator
	loading       bool
	ready         bool
	err           error
	width         int
	height        int
}

func initialModel(mgr *manager.SessionManager) model {
	return model{
		mgr:         mgr,
		currentMode: libraryView,
		sampleCache: make(map[string]*models.Frame),
		indicator:   NewLoadingIndicator("Loading libraries..."),
		loading:     true,
	}
}

func sampleKey(libref, table string) string {
	return libref + "." + table
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, loadLibrariesCmd(m.mgr), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		leftWidth := msg.Width/2 - 1
		rightWidth := msg.Width - leftWidth - 1
		viewHeight := msg.Height - 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewHeight)
			m.leftViewport = viewport.New(leftWidth, viewHeight)
			m.rightViewport = viewport.New(rightWidth, viewHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewHeight
			m.leftViewport.Width = leftWidth
			m.leftViewport.Height = viewHeight
			m.rightViewport.Width = rightWidth
			m.rightViewport.Height = viewHeight
		}
		m.updateViewport()

	case LibrariesLoadedMsg:
		m.loading = false
		if msg.Error != nil {
			m.err = msg.Error
			return m, nil
		}
		m.libraries = msg.Libraries
		m.libCursor = 0
		m.updateViewport()

	case TablesLoadedMsg:
		m.loading = false
		if msg.Error != nil {
			m.err = msg.Error
			return m, nil
		}
		m.selectedLib = msg.Libref
		m.tables = msg.Tables
		m.tableCursor = 0
		m.currentMode = tableView
		m.updateViewport()
		if len(m.tables) > 0 {
			return m, m.loadCursorSample()
		}

	case SampleLoadedMsg:
		if msg.Error != nil {
			m.sampleCache[sampleKey(msg.Libref, msg.Table)] = &models.Frame{
				Columns: []string{"error"},
				Rows:    [][]any{{msg.Error.Error()}},
			}
		} else {
			m.sampleCache[sampleKey(msg.Libref, msg.Table)] = msg.Frame
		}
		m.updateViewport()

	case TickMsg:
		if m.loading {
			m.indicator.Tick()
		}
		cmds = append(cmds, tickCmd())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.currentMode == libraryView {
				if m.libCursor > 0 {
					m.libCursor--
					m.updateViewport()
				}
			} else {
				if m.tableCursor > 0 {
					m.tableCursor--
					m.updateViewport()
					return m, m.loadCursorSample()
				}
			}

		case "down", "j":
			if m.currentMode == libraryView {
				if m.libCursor < len(m.libraries)-1 {
					m.libCursor++
					m.updateViewport()
				}
			} else {
				if m.tableCursor < len(m.tables)-1 {
					m.tableCursor++
					m.updateViewport()
					return m, m.loadCursorSample()
				}
			}

		case "enter":
			if m.currentMode == libraryView && m.libCursor < len(m.libraries) {
				m.loading = true
				m.indicator.SetMessage("Loading tables...")
				return m, loadTablesCmd(m.mgr, m.libraries[m.libCursor])
			}

		case "esc", "backspace":
			if m.currentMode == tableView {
				m.currentMode = libraryView
				m.selectedLib = ""
				m.tables = nil
				m.tableCursor = 0
				m.updateViewport()
			}
		}
	}

	if m.currentMode == libraryView {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		var leftCmd, rightCmd tea.Cmd
		m.leftViewport, leftCmd = m.leftViewport.Update(msg)
		m.rightViewport, rightCmd = m.rightViewport.Update(msg)
		cmds = append(cmds, leftCmd, rightCmd)
	}

	return m, tea.Batch(cmds...)
}

// loadCursorSample fetches the sample under the cursor unless it is cached.
func (m *model) loadCursorSample() tea.Cmd {
	if m.tableCursor >= len(m.tables) {
		return nil
	}
	table := m.tables[m.tableCursor].Name
	if _, ok := m.sampleCache[sampleKey(m.selectedLib, table)]; ok {
		return nil
	}
	return loadSampleCmd(m.mgr, m.selectedLib, table)
}

func (m *model) updateViewport() {
	if !m.ready {
		return
	}
	if m.currentMode == libraryView {
		m.viewport.SetContent(m.renderLibraries())
	} else {
		m.leftViewport.SetContent(m.renderTablesList())
		m.rightViewport.SetContent(m.renderSample())
	}
}

func (m model) renderLibraries() string {
	var s strings.Builder

	for i, lib := range m.libraries {
		cursor := "  "
		if i == m.libCursor {
			cursor = "> "
		}

		style := lipgloss.NewStyle()
		if i == m.libCursor {
			style = style.Foreground(lipgloss.Color("212")).Bold(true)
		}

		s.WriteString(style.Render(cursor+lib) + "\n")
	}

	return s.String()
}

func (m model) renderTablesList() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	s.WriteString(headerStyle.Render("Tables") + "\n")
	s.WriteString(strings.Repeat("─", max(m.leftViewport.Width-2, 10)) + "\n\n")

	for i, table := range m.tables {
		cursor := "  "
		if i == m.tableCursor {
			cursor = "> "
		}

		nameStyle := lipgloss.NewStyle()
		if i == m.tableCursor {
			nameStyle = nameStyle.Foreground(lipgloss.Color("212")).Bold(true)
		} else {
			nameStyle = nameStyle.Foreground(lipgloss.Color("252"))
		}
		s.WriteString(nameStyle.Render(cursor+table.Name) + "\n")

		metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
		if i == m.tableCursor {
			metaStyle = metaStyle.Foreground(lipgloss.Color("245"))
		}
		meta := fmt.Sprintf("  %s · %s · %s",
			table.Format,
			formatSize(table.SizeBytes),
			table.ModifiedAt.Format("2006-01-02 15:04"))
		s.WriteString(metaStyle.Render(meta) + "\n")

		if i < len(m.tables)-1 {
			s.WriteString("\n")
		}
	}

	return s.String()
}

func (m model) renderSample() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	s.WriteString(headerStyle.Render("Sample Rows") + "\n")
	s.WriteString(strings.Repeat("─", max(m.rightViewport.Width-2, 10)) + "\n\n")

	if m.tableCursor >= len(m.tables) {
		return s.String()
	}

	table := m.tables[m.tableCursor].Name
	frame, ok := m.sampleCache[sampleKey(m.selectedLib, table)]
	if !ok {
		loadingStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
		s.WriteString(loadingStyle.Render("Loading sample..."))
		return s.String()
	}

	if frame.Empty() {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
		s.WriteString(emptyStyle.Render("No rows"))
		return s.String()
	}

	frameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	s.WriteString(frameStyle.Render(frame.Render()))
	return s.String()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.err)
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	if m.loading {
		return fmt.Sprintf("%s\n\n  %s\n%s", header, m.indicator.View(), footer)
	}

	if m.currentMode == libraryView {
		return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), footer)
	}
	return fmt.Sprintf("%s\n%s\n%s", header, m.renderSplitView(), footer)
}

func (m model) renderSplitView() string {
	leftStyle := lipgloss.NewStyle().
		Width(m.leftViewport.Width).
		Height(m.leftViewport.Height)

	rightStyle := lipgloss.NewStyle().
		Width(m.rightViewport.Width).
		Height(m.rightViewport.Height)

	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Height(m.leftViewport.Height)

	divider := strings.Builder{}
	for i := 0; i < m.leftViewport.Height; i++ {
		divider.WriteString("│")
		if i < m.leftViewport.Height-1 {
			divider.WriteString("\n")
		}
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftStyle.Render(m.leftViewport.View()),
		dividerStyle.Render(divider.String()),
		rightStyle.Render(m.rightViewport.View()),
	)
}

func (m model) renderHeader() string {
	title := "amigosas - Libraries"
	if m.currentMode == tableView && m.selectedLib != "" {
		title = fmt.Sprintf("amigosas - %s", m.selectedLib)
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63"))

	return style.Render(title)
}

func (m model) renderFooter() string {
	info := "↑/↓: navigate • enter: open"
	if m.currentMode == tableView {
		info += " • esc: back"
	}
	info += " • q: quit"

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	return style.Render(info)
}

// ShowBrowser runs the interactive browser over the manager's session.
func ShowBrowser(mgr *manager.SessionManager) error {
	p := tea.NewProgram(
		initialModel(mgr),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
