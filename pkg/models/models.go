package models

import (
	"fmt"
	"strings"
	"time"
)

// Table describes a member of a data library.
type Table struct {
	Name       string
	Format     string // parquet, csv, json, sas7bdat
	SizeBytes  int64
	ModifiedAt time.Time
}

// Frame is a materialized tabular query result.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows in the frame.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty reports whether the frame holds no rows.
func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// Head returns a frame holding at most n rows. The columns are shared,
// not copied.
func (f *Frame) Head(n int) *Frame {
	if f == nil {
		return nil
	}
	if n < 0 || n > len(f.Rows) {
		n = len(f.Rows)
	}
	return &Frame{Columns: f.Columns, Rows: f.Rows[:n]}
}

const maxCellWidth = 32

// Render formats the frame as an aligned text table.
func (f *Frame) Render() string {
	if f == nil || len(f.Columns) == 0 {
		return ""
	}

	widths := make([]int, len(f.Columns))
	for i, col := range f.Columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(f.Rows))
	for r, row := range f.Rows {
		cells[r] = make([]string, len(f.Columns))
		for c := range f.Columns {
			var v string
			if c < len(row) {
				v = formatCell(row[c])
			}
			cells[r][c] = v
			if len(v) > widths[c] {
				widths[c] = len(v)
			}
		}
	}

	var s strings.Builder
	for i, col := range f.Columns {
		if i > 0 {
			s.WriteString("  ")
		}
		s.WriteString(pad(col, widths[i]))
	}
	s.WriteString("\n")
	for i := range f.Columns {
		if i > 0 {
			s.WriteString("  ")
		}
		s.WriteString(strings.Repeat("-", widths[i]))
	}
	s.WriteString("\n")
	for _, row := range cells {
		for i, v := range row {
			if i > 0 {
				s.WriteString("  ")
			}
			s.WriteString(pad(v, widths[i]))
		}
		s.WriteString("\n")
	}

	return s.String()
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxCellWidth {
		s = s[:maxCellWidth] + "..."
	}
	return s
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
