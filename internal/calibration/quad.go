// Package calibration locates a page in video frames and computes the
// homography from frame pixels to physical page coordinates.
package calibration

import (
	"fmt"
	"image"
	"sort"

	"ricebraille/pkg/geometry"
)

const (
	// minSeparation is the closest two corners may be, in pixels.
	minSeparation = 1e-6
	// collinearTol is the relative tolerance for three corners on one line.
	collinearTol = 1e-6
)

// Quad holds four corner points in source pixel space, in detection order.
type Quad [4]geometry.Point2D

// QuadFromImagePoints converts integer contour vertices.
func QuadFromImagePoints(pts []image.Point) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, fmt.Errorf("%w: need 4 points, got %d", ErrDegenerateQuad, len(pts))
	}
	var q Quad
	for i, p := range pts {
		q[i] = geometry.FromImagePoint(p)
	}
	return q, nil
}

// QuadFromPoints converts a slice of exactly four points.
func QuadFromPoints(pts []geometry.Point2D) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, fmt.Errorf("%w: need 4 points, got %d", ErrDegenerateQuad, len(pts))
	}
	var q Quad
	copy(q[:], pts)
	return q, nil
}

// CanonicalCorners are the quad's corners labelled by position.
type CanonicalCorners struct {
	TopLeft     geometry.Point2D `json:"top_left"`
	TopRight    geometry.Point2D `json:"top_right"`
	BottomRight geometry.Point2D `json:"bottom_right"`
	BottomLeft  geometry.Point2D `json:"bottom_left"`
}

// Points returns the corners in TL, TR, BR, BL order.
func (c CanonicalCorners) Points() [4]geometry.Point2D {
	return [4]geometry.Point2D{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft}
}

// Canonicalize labels the four points by coordinate extremes: the minimum
// x+y is top-left, the maximum x+y is bottom-right, the minimum y-x is
// top-right and the maximum y-x is bottom-left. Ties are broken by (x, y)
// so the result depends only on the coordinates, never on input order.
//
// It fails with ErrDegenerateQuad when the extremes do not select four
// distinct points, when any points coincide or three are collinear, or
// when the ordered polygon intersects itself.
func Canonicalize(q Quad) (CanonicalCorners, error) {
	pts := q
	sort.Slice(pts[:], func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if pts[i].Distance(pts[j]) < minSeparation {
				return CanonicalCorners{}, fmt.Errorf("%w: coincident corners at (%.1f,%.1f)",
					ErrDegenerateQuad, pts[i].X, pts[i].Y)
			}
		}
	}

	sum := func(p geometry.Point2D) float64 { return p.X + p.Y }
	diff := func(p geometry.Point2D) float64 { return p.Y - p.X }

	tl, br, tr, bl := 0, 0, 0, 0
	for i := 1; i < 4; i++ {
		if sum(pts[i]) < sum(pts[tl]) {
			tl = i
		}
		if sum(pts[i]) > sum(pts[br]) {
			br = i
		}
		if diff(pts[i]) < diff(pts[tr]) {
			tr = i
		}
		if diff(pts[i]) > diff(pts[bl]) {
			bl = i
		}
	}

	seen := map[int]bool{tl: true, tr: true, br: true, bl: true}
	if len(seen) != 4 {
		return CanonicalCorners{}, fmt.Errorf("%w: corner extremes are ambiguous", ErrDegenerateQuad)
	}

	c := CanonicalCorners{
		TopLeft:     pts[tl],
		TopRight:    pts[tr],
		BottomRight: pts[br],
		BottomLeft:  pts[bl],
	}

	ordered := c.Points()
	for i := 0; i < 4; i++ {
		a, b, d := ordered[i], ordered[(i+1)%4], ordered[(i+2)%4]
		if geometry.Collinear(a, b, d, collinearTol) {
			return CanonicalCorners{}, fmt.Errorf("%w: collinear corners", ErrDegenerateQuad)
		}
	}
	if !geometry.IsSimple(ordered[:]) {
		return CanonicalCorners{}, fmt.Errorf("%w: self-intersecting corners", ErrDegenerateQuad)
	}

	return c, nil
}
