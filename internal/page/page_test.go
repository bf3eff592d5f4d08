package page

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ricebraille/pkg/geometry"
)

func smallLayout() Layout {
	return Layout{Name: "test", WidthInches: 4, HeightInches: 3, Rows: 3, Cols: 4}
}

// TestParse_ShortTextLeavesBlanks verifies text shorter than the grid is
// accepted and unfilled cells read as blank.
func TestParse_ShortTextLeavesBlanks(t *testing.T) {
	p, err := Parse("ab", smallLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.At(0, 0) != 'a' || p.At(0, 1) != 'b' {
		t.Fatalf("unexpected first row %q", p.Line(0))
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			if r == 0 && c < 2 {
				continue
			}
			if got := p.At(r, c); got != Blank {
				t.Fatalf("cell (%d,%d) = %q, want blank", r, c, got)
			}
		}
	}
}

// TestParse_EmptyText verifies an empty text yields an all-blank page.
func TestParse_EmptyText(t *testing.T) {
	p, err := Parse("", StandardBraille())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.TrimSpace(p.String()) != "" {
		t.Fatalf("expected blank page, got %q", p.String())
	}
}

// TestParse_NewlineEndsRowEarly verifies a short line leaves its row's tail blank.
func TestParse_NewlineEndsRowEarly(t *testing.T) {
	p, err := Parse("ab\ncdef\ng", smallLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"ab", "cdef", "g"}
	for r, w := range want {
		if got := p.Line(r); got != w {
			t.Errorf("row %d = %q, want %q", r, got, w)
		}
	}
	if p.At(0, 2) != Blank || p.At(0, 3) != Blank {
		t.Error("row 0 tail should be blank")
	}
}

// TestParse_NewlineAfterFullRow verifies a newline right after a full row
// ends the following row with nothing placed in it.
func TestParse_NewlineAfterFullRow(t *testing.T) {
	p, err := Parse("abcd\nefgh\n", smallLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for r, w := range []string{"abcd", "", "efgh"} {
		if got := p.Line(r); got != w {
			t.Errorf("row %d = %q, want %q", r, got, w)
		}
	}
}

// TestParse_OverflowWraps verifies long lines continue on the next row.
func TestParse_OverflowWraps(t *testing.T) {
	p, err := Parse("abcdefg", smallLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Line(0) != "abcd" || p.Line(1) != "efg" {
		t.Fatalf("unexpected rows %q / %q", p.Line(0), p.Line(1))
	}
}

// TestParse_FormFeedEndsPage verifies text after a form feed is ignored.
func TestParse_FormFeedEndsPage(t *testing.T) {
	p, err := Parse("ab\fcd", smallLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Line(0) != "ab" || p.Line(1) != "" {
		t.Fatalf("unexpected rows %q / %q", p.Line(0), p.Line(1))
	}
}

// TestParse_InvalidLayout verifies construction rejects an unusable layout.
func TestParse_InvalidLayout(t *testing.T) {
	if _, err := Parse("x", Layout{Name: "bad"}); err == nil {
		t.Fatal("expected error for zero-size layout")
	}
}

// TestParseDocument splits pages on form feeds.
func TestParseDocument(t *testing.T) {
	pages, err := ParseDocument("ab\r\n\f\r\ncd\r\n\f", smallLayout())
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Line(0) != "ab" || pages[1].Line(0) != "cd" {
		t.Fatalf("unexpected first lines %q / %q", pages[0].Line(0), pages[1].Line(0))
	}
}

// TestAt_OutOfRange verifies off-grid lookups return blank.
func TestAt_OutOfRange(t *testing.T) {
	p, err := Parse("abcd", smallLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, rc := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 4}} {
		if got := p.At(rc[0], rc[1]); got != Blank {
			t.Errorf("At(%d,%d) = %q, want blank", rc[0], rc[1], got)
		}
	}
	if p.Lookup(OffPage) != Blank {
		t.Error("OffPage lookup should be blank")
	}
}

// TestCharAt verifies quantize-then-lookup on the standard sheet.
func TestCharAt(t *testing.T) {
	l := StandardBraille()
	var b strings.Builder
	for r := 0; r < l.Rows; r++ {
		line := strings.Repeat(".", l.Cols)
		if r == 14 {
			line = strings.Repeat(".", 13) + "X" + strings.Repeat(".", l.Cols-14)
		}
		b.WriteString(line)
	}
	p, err := Parse(b.String(), l)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ch, c := p.CharAt(geometry.Point2D{X: 3.975, Y: 5.875})
	if ch != 'X' || c != (GridCoord{Row: 14, Col: 13}) {
		t.Fatalf("CharAt = %q at %v, want 'X' at (14,13)", ch, c)
	}
	ch, c = p.CharAt(geometry.Point2D{X: 0.1, Y: 0.1})
	if ch != Blank || !c.IsOffPage() {
		t.Fatalf("margin position gave %q at %v", ch, c)
	}
}

// TestLoad reads a .brf file from disk.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.brf")
	if err := os.WriteFile(path, []byte("ab\ncd\n\fef\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path, smallLayout())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Line(0) != "ab" || p.Line(1) != "cd" || p.Line(2) != "" {
		t.Fatalf("unexpected page:\n%s", p)
	}
	pages, err := LoadDocument(path, smallLayout())
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(pages) != 2 || pages[1].Line(0) != "ef" {
		t.Fatalf("unexpected document with %d pages", len(pages))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.brf"), smallLayout()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
