// Package locate resolves fingertip samples to braille cells.
package locate

import (
	"fmt"

	"ricebraille/internal/calibration"
	"ricebraille/internal/page"
	"ricebraille/internal/tracking"
	"ricebraille/pkg/geometry"
)

// Reading is the resolved cell under one sample.
type Reading struct {
	Sample   tracking.Sample
	Position geometry.Point2D // physical page coordinates
	Cell     page.GridCoord
	Char     rune
}

// OnPage reports whether the sample fell inside the printable area.
func (r Reading) OnPage() bool { return !r.Cell.IsOffPage() }

func (r Reading) String() string {
	if !r.OnPage() {
		return fmt.Sprintf("%s -> off-page", r.Sample)
	}
	return fmt.Sprintf("%s -> (%.3f,%.3f) cell %s %q", r.Sample, r.Position.X, r.Position.Y, r.Cell, r.Char)
}

// Locator maps samples through a calibration onto a page.
type Locator struct {
	meta *calibration.TransformMetadata
	page *page.Page
}

// New creates a locator. The calibration's desired size should match the
// page layout's dimensions.
func New(meta *calibration.TransformMetadata, p *page.Page) (*Locator, error) {
	if meta == nil || p == nil {
		return nil, fmt.Errorf("locator needs a calibration and a page")
	}
	return &Locator{meta: meta, page: p}, nil
}

// Locate resolves one sample. Samples projecting to infinity are off-page.
func (l *Locator) Locate(s tracking.Sample) Reading {
	pos, ok := l.meta.MapPoint(s.Position)
	if !ok {
		return Reading{Sample: s, Cell: page.OffPage, Char: page.Blank}
	}
	ch, cell := l.page.CharAt(pos)
	return Reading{Sample: s, Position: pos, Cell: cell, Char: ch}
}

// LocateAll resolves samples in order.
func (l *Locator) LocateAll(samples []tracking.Sample) []Reading {
	out := make([]Reading, len(samples))
	for i, s := range samples {
		out[i] = l.Locate(s)
	}
	return out
}

// Filter keeps the samples of one finger.
func Filter(samples []tracking.Sample, f tracking.Finger) []tracking.Sample {
	var out []tracking.Sample
	for _, s := range samples {
		if s.Finger == f {
			out = append(out, s)
		}
	}
	return out
}
