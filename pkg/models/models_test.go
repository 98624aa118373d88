package models

import (
	"strings"
	"testing"
)

func TestFrameHead(t *testing.T) {
	frame := &Frame{
		Columns: []string{"id"},
		Rows:    [][]any{{1}, {2}, {3}},
	}

	if got := frame.Head(2).Len(); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
	if got := frame.Head(10).Len(); got != 3 {
		t.Errorf("head past the end should return all rows, got %d", got)
	}

	var nilFrame *Frame
	if nilFrame.Head(5) != nil {
		t.Error("head of a nil frame should be nil")
	}
	if !nilFrame.Empty() {
		t.Error("nil frame should be empty")
	}
}

func TestFrameRender(t *testing.T) {
	frame := &Frame{
		Columns: []string{"id", "city"},
		Rows: [][]any{
			{1, "recife"},
			{2, nil},
		},
	}

	out := frame.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, divider, and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "city") {
		t.Errorf("header missing column name: %q", lines[0])
	}
	if !strings.Contains(lines[2], "recife") {
		t.Errorf("row missing value: %q", lines[2])
	}
}

func TestFrameRenderTruncatesLongCells(t *testing.T) {
	frame := &Frame{
		Columns: []string{"note"},
		Rows:    [][]any{{strings.Repeat("a", 100)}},
	}

	out := frame.Render()
	if !strings.Contains(out, "...") {
		t.Error("long cell should be truncated")
	}
	if strings.Contains(out, strings.Repeat("a", 40)) {
		t.Error("cell should not exceed the width cap")
	}
}
