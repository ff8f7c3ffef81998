package cli

import (
	"strings"
	"testing"
	"unicode/utf8"

	"todoq/internal/model"
	"todoq/internal/ui"
)

func TestTodoLinesMono(t *testing.T) {
	ui.SetTheme("mono")
	defer ui.SetTheme("classic")

	lines := todoLines([]model.Todo{
		{ID: 1, Title: "Buy milk"},
		{ID: 2, Title: "Ship it", Done: true},
	})
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "[ ]") || !strings.Contains(lines[0], "Buy milk") {
		t.Errorf("pending line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "[x]") || !strings.Contains(lines[1], "Ship it") {
		t.Errorf("done line: %q", lines[1])
	}
	if !strings.Contains(lines[0], "1.") || !strings.Contains(lines[1], "2.") {
		t.Error("server ids missing from listing")
	}
}

func TestTodoLinesEmpty(t *testing.T) {
	ui.SetTheme("mono")
	defer ui.SetTheme("classic")

	lines := todoLines(nil)
	if len(lines) != 1 || !strings.Contains(lines[0], "no todos") {
		t.Errorf("got %v", lines)
	}
}

func TestTodoLinesTruncatesLongTitles(t *testing.T) {
	ui.SetTheme("mono")
	defer ui.SetTheme("classic")

	long := strings.Repeat("x", 120)
	lines := todoLines([]model.Todo{{ID: 1, Title: long}})
	if !strings.Contains(lines[0], "...") {
		t.Errorf("long title not truncated: %q", lines[0])
	}
	if strings.Contains(lines[0], long) {
		t.Error("full title leaked into listing")
	}
}

func TestTodoLinesTruncatesOnRunes(t *testing.T) {
	ui.SetTheme("mono")
	defer ui.SetTheme("classic")

	// Multi-byte runes: a byte-based cut would split one in half.
	long := strings.Repeat("ż", 120)
	lines := todoLines([]model.Todo{{ID: 1, Title: long}})
	if !utf8.ValidString(lines[0]) {
		t.Errorf("truncated line is not valid UTF-8: %q", lines[0])
	}
	if !strings.Contains(lines[0], strings.Repeat("ż", 77)+"...") {
		t.Errorf("want 77 runes then ellipsis: %q", lines[0])
	}
}

func TestGroupLines(t *testing.T) {
	ui.SetTheme("mono")
	defer ui.SetTheme("classic")

	lines := groupLines([]model.Todo{
		{ID: 1, Title: "first pending"},
		{ID: 2, Title: "finished", Done: true},
		{ID: 3, Title: "second pending"},
	})

	joined := strings.Join(lines, "\n")
	pend := strings.Index(joined, "Pending")
	done := strings.Index(joined, "Done")
	if pend < 0 || done < 0 || pend > done {
		t.Fatalf("want Pending section before Done:\n%s", joined)
	}
	if !strings.Contains(joined[pend:done], "first pending") ||
		!strings.Contains(joined[pend:done], "second pending") {
		t.Errorf("pending todos not under Pending:\n%s", joined)
	}
	if !strings.Contains(joined[done:], "finished") {
		t.Errorf("done todo not under Done:\n%s", joined)
	}
	// Server order survives within a section.
	if strings.Index(joined, "first pending") > strings.Index(joined, "second pending") {
		t.Error("pending section reordered")
	}
}

func TestGroupLinesEmptySections(t *testing.T) {
	ui.SetTheme("mono")
	defer ui.SetTheme("classic")

	lines := groupLines([]model.Todo{{ID: 1, Title: "only pending"}})
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "(none)") {
		t.Errorf("empty Done section not marked:\n%s", joined)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		args []string
		id   int64
		code int
	}{
		{"ok", []string{"7"}, 7, 0},
		{"missing", nil, 0, 2},
		{"too many", []string{"1", "2"}, 0, 2},
		{"not a number", []string{"abc"}, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, code := parseID(tt.args, "done")
			if code != tt.code {
				t.Errorf("code: got %d, want %d", code, tt.code)
			}
			if code == 0 && id != tt.id {
				t.Errorf("id: got %d, want %d", id, tt.id)
			}
		})
	}
}
