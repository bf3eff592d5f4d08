package page

import (
	"fmt"
	"os"
	"strings"

	"ricebraille/pkg/geometry"
)

// Blank is returned for cells with no character.
const Blank = ' '

// formFeed separates pages in a .brf document.
const formFeed = '\f'

// Page is a fixed Rows x Cols character grid. It is read-only after Parse.
type Page struct {
	layout Layout
	cells  [][]rune
}

// Parse lays text out row-major into the layout's grid.
//
// A line break (LF, CR or CRLF) reached before a row is full ends that row
// early, so a line break directly after a full row yields an empty row.
// Text running past the last column continues on the next row. A form
// feed or the end of the text leaves all remaining cells blank. Text
// shorter than the grid is not an error.
func Parse(text string, layout Layout) (*Page, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	p := &Page{layout: layout, cells: make([][]rune, layout.Rows)}
	for r := range p.cells {
		p.cells[r] = make([]rune, layout.Cols)
		for c := range p.cells[r] {
			p.cells[r][c] = Blank
		}
	}

	runes := []rune(text)
	i := 0
	for row := 0; row < layout.Rows; row++ {
		col := 0
		for col < layout.Cols {
			if i >= len(runes) || runes[i] == formFeed {
				return p, nil
			}
			if n := lineBreak(runes, i); n > 0 {
				i += n
				break
			}
			p.cells[row][col] = runes[i]
			i++
			col++
		}
	}

	return p, nil
}

// ParseDocument splits a multi-page document on form feeds and parses each
// page. A trailing form feed does not produce an empty page.
func ParseDocument(text string, layout Layout) ([]*Page, error) {
	chunks := strings.Split(text, string(formFeed))
	if len(chunks) > 1 && strings.TrimSpace(chunks[len(chunks)-1]) == "" {
		chunks = chunks[:len(chunks)-1]
	}

	pages := make([]*Page, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 {
			// FF is often followed by CRLF before the next page's first line
			chunk = strings.TrimPrefix(strings.TrimPrefix(chunk, "\r\n"), "\n")
		}
		p, err := Parse(chunk, layout)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// Load reads a .brf file and parses its first page.
func Load(path string, layout Layout) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	return Parse(string(data), layout)
}

// LoadDocument reads a .brf file and parses every page.
func LoadDocument(path string, layout Layout) ([]*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return ParseDocument(string(data), layout)
}

// Layout returns the page layout.
func (p *Page) Layout() Layout {
	return p.layout
}

// At returns the character at (row, col), or Blank when the cell is unset
// or outside the grid.
func (p *Page) At(row, col int) rune {
	if row < 0 || row >= len(p.cells) || col < 0 || col >= len(p.cells[row]) {
		return Blank
	}
	return p.cells[row][col]
}

// Lookup returns the character for a grid coordinate; OffPage yields Blank.
func (p *Page) Lookup(c GridCoord) rune {
	return p.At(c.Row, c.Col)
}

// CharAt quantizes a physical position and returns its character and cell.
func (p *Page) CharAt(pos geometry.Point2D) (rune, GridCoord) {
	c := p.layout.Quantize(pos)
	return p.Lookup(c), c
}

// Line returns one row as a string with trailing blanks removed.
func (p *Page) Line(row int) string {
	if row < 0 || row >= len(p.cells) {
		return ""
	}
	return strings.TrimRight(string(p.cells[row]), string(Blank))
}

// String renders the grid one row per line.
func (p *Page) String() string {
	var b strings.Builder
	for r := range p.cells {
		b.WriteString(p.Line(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// lineBreak returns the length of the line break at runes[i], or 0.
func lineBreak(runes []rune, i int) int {
	if i >= len(runes) {
		return 0
	}
	switch runes[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 < len(runes) && runes[i+1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}
