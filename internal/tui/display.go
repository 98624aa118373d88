package tui

import (
	"fmt"
	"io"
	"os"
)

// TerminalDisplay clears the terminal with ANSI escapes. It backs the
// session manager's reconnect-time display clear for interactive sessions.
type TerminalDisplay struct {
	out io.Writer
}

// NewTerminalDisplay returns a display writing to stdout.
func NewTerminalDisplay() *TerminalDisplay {
	return &TerminalDisplay{out: os.Stdout}
}

// Clear erases the screen and homes the cursor.
func (d *TerminalDisplay) Clear() {
	fmt.Fprint(d.out, "\x1b[2J\x1b[H")
}
