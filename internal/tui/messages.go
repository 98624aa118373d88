package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amigodata/amigosas/internal/manager"
	"github.com/amigodata/amigosas/pkg/models"
)

// Message types for loads running behind the spinner
type (
	// LibrariesLoadedMsg contains the session's librefs
	LibrariesLoadedMsg struct {
		Libraries []string
		Error     error
	}

	// TablesLoadedMsg contains the members of one library
	TablesLoadedMsg struct {
		Libref string
		Tables []models.Table
		Error  error
	}

	// SampleLoadedMsg contains the head of one table
	SampleLoadedMsg struct {
		Libref string
		Table  string
		Frame  *models.Frame
		Error  error
	}

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time
)

// loadLibrariesCmd lists the session's librefs
func loadLibrariesCmd(mgr *manager.SessionManager) tea.Cmd {
	return func() tea.Msg {
		libs, err := mgr.ListLibraries()
		return LibrariesLoadedMsg{Libraries: libs, Error: err}
	}
}

// loadTablesCmd lists the members of a library
func loadTablesCmd(mgr *manager.SessionManager, libref string) tea.Cmd {
	return func() tea.Msg {
		tables, err := mgr.ListTables(libref)
		return TablesLoadedMsg{Libref: libref, Tables: tables, Error: err}
	}
}

// loadSampleCmd fetches the head of a table through a sample view handle
func loadSampleCmd(mgr *manager.SessionManager, libref, table string) tea.Cmd {
	return func() tea.Msg {
		ds, err := mgr.SampleTable(libref, table)
		if err != nil {
			return SampleLoadedMsg{Libref: libref, Table: table, Error: err}
		}
		frame, err := ds.Head(0)
		return SampleLoadedMsg{Libref: libref, Table: table, Frame: frame, Error: err}
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
