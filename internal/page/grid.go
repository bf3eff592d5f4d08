package page

import (
	"fmt"
	"math"

	"ricebraille/pkg/geometry"
)

// GridCoord addresses one character cell.
type GridCoord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// OffPage is returned for positions outside the printable margins.
var OffPage = GridCoord{Row: -1, Col: -1}

// IsOffPage reports whether c is the off-page sentinel.
func (c GridCoord) IsOffPage() bool {
	return c == OffPage
}

func (c GridCoord) String() string {
	if c.IsOffPage() {
		return "off-page"
	}
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Contains reports whether the position lies inside the printable area.
// The area is half-open: the left and top margins are inclusive, the
// right and bottom margins exclusive.
func (l Layout) Contains(p geometry.Point2D) bool {
	return p.X >= l.LeftMargin && p.X < l.WidthInches-l.RightMargin &&
		p.Y >= l.TopMargin && p.Y < l.HeightInches-l.BottomMargin
}

// Quantize maps a physical page position to its grid cell, or OffPage.
//
// The mapping is proportional across the printable area, not snapped to the
// embosser's dot pitch. Real sheets read up to one row or column off because
// of embossing and registration tolerance; that bias is not corrected here.
func (l Layout) Quantize(p geometry.Point2D) GridCoord {
	if !l.Contains(p) {
		return OffPage
	}

	col := int(math.Floor(float64(l.Cols) * (p.X - l.LeftMargin) / l.PrintableWidth()))
	row := int(math.Floor(float64(l.Rows) * (p.Y - l.TopMargin) / l.PrintableHeight()))

	// Rounding can land exactly on the upper bound for x just below the edge
	col = min(max(col, 0), l.Cols-1)
	row = min(max(row, 0), l.Rows-1)

	return GridCoord{Row: row, Col: col}
}

// Quantize is the free-function form of Layout.Quantize.
func Quantize(l Layout, p geometry.Point2D) GridCoord {
	return l.Quantize(p)
}

// CellOrigin returns the physical top-left corner of a cell.
func (l Layout) CellOrigin(c GridCoord) geometry.Point2D {
	cell := l.CellSize()
	return geometry.Point2D{
		X: l.LeftMargin + float64(c.Col)*cell.Width,
		Y: l.TopMargin + float64(c.Row)*cell.Height,
	}
}
