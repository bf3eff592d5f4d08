package page

import (
	"testing"

	"ricebraille/pkg/geometry"
)

// TestQuantize_WorkedExample verifies the reference finger position on the
// standard sheet lands on row 14, column 13.
func TestQuantize_WorkedExample(t *testing.T) {
	l := StandardBraille()
	got := l.Quantize(geometry.Point2D{X: 3.975, Y: 5.875})
	if got != (GridCoord{Row: 14, Col: 13}) {
		t.Fatalf("expected (14,13), got %v", got)
	}
}

// TestQuantize_MarginEdges verifies the half-open printable area.
func TestQuantize_MarginEdges(t *testing.T) {
	l := StandardBraille()
	right := l.WidthInches - l.RightMargin
	bottom := l.HeightInches - l.BottomMargin

	cases := []struct {
		name string
		p    geometry.Point2D
		want GridCoord
	}{
		{"top-left inclusive", geometry.Point2D{X: l.LeftMargin, Y: l.TopMargin}, GridCoord{0, 0}},
		{"left of margin", geometry.Point2D{X: l.LeftMargin - 1e-9, Y: 5}, OffPage},
		{"above margin", geometry.Point2D{X: 5, Y: l.TopMargin - 1e-9}, OffPage},
		{"right edge exclusive", geometry.Point2D{X: right, Y: 5}, OffPage},
		{"bottom edge exclusive", geometry.Point2D{X: 5, Y: bottom}, OffPage},
		{"just inside bottom-right", geometry.Point2D{X: right - 1e-9, Y: bottom - 1e-9}, GridCoord{l.Rows - 1, l.Cols - 1}},
		{"negative", geometry.Point2D{X: -3, Y: -3}, OffPage},
		{"beyond page", geometry.Point2D{X: 20, Y: 20}, OffPage},
	}
	for _, c := range cases {
		if got := l.Quantize(c.p); got != c.want {
			t.Errorf("%s: Quantize(%v) = %v, want %v", c.name, c.p, got, c.want)
		}
	}
}

// TestQuantize_RangeProperty sweeps the page and checks every result is
// either a valid cell inside the margins or OffPage outside them.
func TestQuantize_RangeProperty(t *testing.T) {
	l := StandardBraille()
	for x := -0.5; x <= l.WidthInches+0.5; x += 0.037 {
		for y := -0.5; y <= l.HeightInches+0.5; y += 0.041 {
			p := geometry.Point2D{X: x, Y: y}
			got := l.Quantize(p)
			if l.Contains(p) {
				if got.Row < 0 || got.Row >= l.Rows || got.Col < 0 || got.Col >= l.Cols {
					t.Fatalf("Quantize(%v) = %v out of grid range", p, got)
				}
			} else if !got.IsOffPage() {
				t.Fatalf("Quantize(%v) = %v, want off-page", p, got)
			}
		}
	}
}

// TestQuantize_MonotonicColumns verifies columns never decrease as x grows.
func TestQuantize_MonotonicColumns(t *testing.T) {
	l := StandardBraille()
	y := 5.0
	prev := -1
	for x := l.LeftMargin; x < l.WidthInches-l.RightMargin; x += 0.01 {
		c := l.Quantize(geometry.Point2D{X: x, Y: y})
		if c.Col < prev {
			t.Fatalf("column decreased at x=%v: %d after %d", x, c.Col, prev)
		}
		prev = c.Col
	}
	if prev != l.Cols-1 {
		t.Fatalf("expected sweep to reach last column, got %d", prev)
	}
}

// TestQuantize_FreeFunction verifies the free function matches the method.
func TestQuantize_FreeFunction(t *testing.T) {
	l := StandardBraille()
	p := geometry.Point2D{X: 6, Y: 6}
	if Quantize(l, p) != l.Quantize(p) {
		t.Fatal("Quantize and Layout.Quantize disagree")
	}
}

// TestCellOrigin verifies a cell origin quantizes back to the same cell.
func TestCellOrigin(t *testing.T) {
	l := StandardBraille()
	cell := l.CellSize()
	for _, c := range []GridCoord{{0, 0}, {14, 13}, {25, 41}} {
		o := l.CellOrigin(c)
		center := geometry.Point2D{X: o.X + cell.Width/2, Y: o.Y + cell.Height/2}
		if got := l.Quantize(center); got != c {
			t.Errorf("center of %v quantized to %v", c, got)
		}
	}
}

// TestGridCoordString verifies the sentinel renders distinctly.
func TestGridCoordString(t *testing.T) {
	if OffPage.String() != "off-page" {
		t.Fatalf("unexpected sentinel string %q", OffPage.String())
	}
	if (GridCoord{Row: 2, Col: 7}).String() != "(2,7)" {
		t.Fatal("unexpected coordinate string")
	}
}
