// Package page provides braille page layouts, grid quantization and the
// character grid read from .brf text.
package page

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"ricebraille/pkg/geometry"
)

// Standard braille sheet, 11 1/2" x 11" embossed 42 cells by 26 lines.
const (
	StandardWidthInches  = 11.5625
	StandardHeightInches = 11.0

	StandardRows = 26
	StandardCols = 42

	StandardLeftMargin   = 0.875
	StandardRightMargin  = 0.75
	StandardTopMargin    = 0.5
	StandardBottomMargin = 0.625
)

// StandardName is the registry name of the standard sheet.
const StandardName = "braille-11.5x11"

// Layout describes the physical geometry of a page and its character grid.
// All distances are in the same physical unit (inches for built-in layouts).
type Layout struct {
	Name         string  `json:"name"`
	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
	LeftMargin   float64 `json:"left_margin"`
	RightMargin  float64 `json:"right_margin"`
	TopMargin    float64 `json:"top_margin"`
	BottomMargin float64 `json:"bottom_margin"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
}

// StandardBraille returns the standard braille sheet layout.
func StandardBraille() Layout {
	return Layout{
		Name:         StandardName,
		WidthInches:  StandardWidthInches,
		HeightInches: StandardHeightInches,
		LeftMargin:   StandardLeftMargin,
		RightMargin:  StandardRightMargin,
		TopMargin:    StandardTopMargin,
		BottomMargin: StandardBottomMargin,
		Rows:         StandardRows,
		Cols:         StandardCols,
	}
}

// Dimensions returns the physical page size.
func (l Layout) Dimensions() geometry.Size {
	return geometry.Size{Width: l.WidthInches, Height: l.HeightInches}
}

// PrintableWidth returns the width between the left and right margins.
func (l Layout) PrintableWidth() float64 {
	return l.WidthInches - l.LeftMargin - l.RightMargin
}

// PrintableHeight returns the height between the top and bottom margins.
func (l Layout) PrintableHeight() float64 {
	return l.HeightInches - l.TopMargin - l.BottomMargin
}

// CellSize returns the physical size of one grid cell.
func (l Layout) CellSize() geometry.Size {
	if l.Rows <= 0 || l.Cols <= 0 {
		return geometry.Size{}
	}
	return geometry.Size{
		Width:  l.PrintableWidth() / float64(l.Cols),
		Height: l.PrintableHeight() / float64(l.Rows),
	}
}

// Validate checks that the layout describes a usable grid.
func (l Layout) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("page layout name is required")
	}
	if l.WidthInches <= 0 || l.HeightInches <= 0 {
		return fmt.Errorf("page dimensions must be positive")
	}
	if l.LeftMargin < 0 || l.RightMargin < 0 || l.TopMargin < 0 || l.BottomMargin < 0 {
		return fmt.Errorf("page margins must not be negative")
	}
	if l.PrintableWidth() <= 0 || l.PrintableHeight() <= 0 {
		return fmt.Errorf("margins leave no printable area (%.4f x %.4f)",
			l.PrintableWidth(), l.PrintableHeight())
	}
	if l.Rows <= 0 || l.Cols <= 0 {
		return fmt.Errorf("grid rows and cols must be positive")
	}
	return nil
}

// SaveToFile saves the layout to a JSON file.
func (l Layout) SaveToFile(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadLayout loads a layout from a JSON file.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, err
	}

	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid page layout: %w", err)
	}

	return l, nil
}

// Registry of known layouts
var registry = make(map[string]Layout)

// Register adds a layout to the registry.
func Register(l Layout) {
	registry[l.Name] = l
}

// GetLayout returns a layout by name.
func GetLayout(name string) (Layout, bool) {
	l, ok := registry[name]
	return l, ok
}

// ListLayouts returns all registered layout names, sorted.
func ListLayouts() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(StandardBraille())
}
