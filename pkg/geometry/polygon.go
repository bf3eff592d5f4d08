package geometry

import "math"

// IsConvex returns true if the polygon vertices form a convex polygon.
// The polygon is assumed to be simple (non-self-intersecting).
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(
			polygon[i],
			polygon[(i+1)%n],
			polygon[(i+2)%n],
		)

		if cross != 0 {
			currentSign := 1
			if cross < 0 {
				currentSign = -1
			}

			if sign == 0 {
				sign = currentSign
			} else if currentSign != sign {
				return false
			}
		}
	}

	return true
}

// IsSimple reports whether the closed polygon has no two non-adjacent edges
// that cross or touch.
func IsSimple(polygon []Point2D) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := polygon[i], polygon[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Adjacent edges share a vertex
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := polygon[j], polygon[(j+1)%n]
			if SegmentsIntersect(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

// SegmentsIntersect reports whether segment p1-p2 and segment q1-q2 share
// at least one point.
func SegmentsIntersect(p1, p2, q1, q2 Point2D) bool {
	d1 := crossProduct(q1, q2, p1)
	d2 := crossProduct(q1, q2, p2)
	d3 := crossProduct(p1, p2, q1)
	d4 := crossProduct(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// Collinear reports whether a, b and c lie on one line within tol, where
// tol is relative to the longest of the three pairwise distances.
func Collinear(a, b, c Point2D, tol float64) bool {
	scale := math.Max(a.Distance(b), math.Max(b.Distance(c), a.Distance(c)))
	if scale == 0 {
		return true
	}
	// |cross| / scale is the distance of the third point from the line,
	// scaled again so the test is independent of pixel units.
	return math.Abs(crossProduct(a, b, c))/(scale*scale) < tol
}

// onSegment reports whether r, known to be collinear with p-q, lies within
// the segment's bounding box.
func onSegment(p, q, r Point2D) bool {
	return r.X >= math.Min(p.X, q.X) && r.X <= math.Max(p.X, q.X) &&
		r.Y >= math.Min(p.Y, q.Y) && r.Y <= math.Max(p.Y, q.Y)
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
