package app

import (
	"fmt"
	"strconv"
	"strings"

	"ricebraille/pkg/geometry"
)

// ParsePoint parses "x,y".
func ParsePoint(s string) (geometry.Point2D, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geometry.Point2D{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("point %q: bad x", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("point %q: bad y", s)
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

// ParseCorners parses four points separated by semicolons, e.g.
// "10,12;620,8;630,470;4,466".
func ParseCorners(s string) ([]geometry.Point2D, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return nil, fmt.Errorf("corners: want 4 points, got %d", len(parts))
	}
	pts := make([]geometry.Point2D, 0, 4)
	for _, p := range parts {
		pt, err := ParsePoint(p)
		if err != nil {
			return nil, fmt.Errorf("corners: %w", err)
		}
		pts = append(pts, pt)
	}
	return pts, nil
}
