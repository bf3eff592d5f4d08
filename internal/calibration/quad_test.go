package calibration

import (
	"errors"
	"testing"

	"ricebraille/pkg/geometry"
)

var perspectiveQuad = Quad{
	{X: 112, Y: 80},
	{X: 1490, Y: 130}, // TR
	{X: 1580, Y: 1010},
	{X: 60, Y: 960},
}

// permutations returns every ordering of q.
func permutations(q Quad) []Quad {
	var out []Quad
	var rec func(k int, cur Quad)
	rec = func(k int, cur Quad) {
		if k == 4 {
			out = append(out, cur)
			return
		}
		for i := k; i < 4; i++ {
			cur[k], cur[i] = cur[i], cur[k]
			rec(k+1, cur)
			cur[k], cur[i] = cur[i], cur[k]
		}
	}
	rec(0, q)
	return out
}

// TestCanonicalize_OrderInvariant verifies every input ordering, including
// cyclic shifts and reflections, yields the same labelling.
func TestCanonicalize_OrderInvariant(t *testing.T) {
	want := CanonicalCorners{
		TopLeft:     perspectiveQuad[0],
		TopRight:    perspectiveQuad[1],
		BottomRight: perspectiveQuad[2],
		BottomLeft:  perspectiveQuad[3],
	}
	perms := permutations(perspectiveQuad)
	if len(perms) != 24 {
		t.Fatalf("expected 24 permutations, got %d", len(perms))
	}
	for _, q := range perms {
		got, err := Canonicalize(q)
		if err != nil {
			t.Fatalf("Canonicalize(%v): %v", q, err)
		}
		if got != want {
			t.Fatalf("Canonicalize(%v) = %+v, want %+v", q, got, want)
		}
	}
}

// TestCanonicalize_Degenerate rejects unusable corner sets.
func TestCanonicalize_Degenerate(t *testing.T) {
	cases := map[string]Quad{
		"coincident":    {{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		"collinear":     {{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}},
		"all on a line": {{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}},
		"diamond":       {{X: 5, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 5}},
	}
	for name, q := range cases {
		if _, err := Canonicalize(q); !errors.Is(err, ErrDegenerateQuad) {
			t.Errorf("%s: expected ErrDegenerateQuad, got %v", name, err)
		}
	}
}

// TestQuadFromPoints_Count rejects anything but four points.
func TestQuadFromPoints_Count(t *testing.T) {
	if _, err := QuadFromPoints(make([]geometry.Point2D, 3)); !errors.Is(err, ErrDegenerateQuad) {
		t.Fatalf("expected ErrDegenerateQuad for 3 points, got %v", err)
	}
	q, err := QuadFromPoints(perspectiveQuad[:])
	if err != nil || q != perspectiveQuad {
		t.Fatalf("QuadFromPoints = %v, %v", q, err)
	}
}
