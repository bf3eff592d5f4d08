package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"ricebraille/pkg/geometry"
)

// reprojectTol bounds the corner reprojection error of a solved
// homography, relative to the larger rectified extent.
const reprojectTol = 1e-6

// computeHomography solves the 3x3 projective transform mapping src[i] to
// dst[i] for exactly four correspondences, normalized so h33 is 1.
// Both point sets are conditioned to zero mean and mean distance sqrt(2)
// before the solve.
func computeHomography(src, dst [4]geometry.Point2D) (geometry.Homography, error) {
	srcT, srcN := normalizePoints(src)
	dstT, dstN := normalizePoints(dst)

	hn, err := solveHomography(srcN, dstN)
	if err != nil {
		return geometry.Homography{}, err
	}

	dstInv, ok := dstT.Inverse()
	if !ok {
		return geometry.Homography{}, fmt.Errorf("%w: target points coincide", ErrDegenerateQuad)
	}
	h := mulHomography(dstInv, mulHomography(hn, srcT))
	if math.Abs(h[8]) < 1e-12 {
		return geometry.Homography{}, fmt.Errorf("%w: origin maps to infinity", ErrDegenerateQuad)
	}
	for i := range h {
		h[i] /= h[8]
	}
	h[8] = 1
	return h, nil
}

// normalizePoints returns the similarity that conditions pts and the
// conditioned points.
func normalizePoints(pts [4]geometry.Point2D) (geometry.Homography, [4]geometry.Point2D) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4

	var mean float64
	for _, p := range pts {
		mean += math.Hypot(p.X-cx, p.Y-cy)
	}
	mean /= 4

	s := 1.0
	if mean > 0 {
		s = math.Sqrt2 / mean
	}
	t := geometry.Homography{s, 0, -s * cx, 0, s, -s * cy, 0, 0, 1}

	var out [4]geometry.Point2D
	for i, p := range pts {
		out[i] = geometry.Point2D{X: s * (p.X - cx), Y: s * (p.Y - cy)}
	}
	return t, out
}

func mulHomography(a, b geometry.Homography) geometry.Homography {
	var out geometry.Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var v float64
			for k := 0; k < 3; k++ {
				v += a[r*3+k] * b[k*3+c]
			}
			out[r*3+c] = v
		}
	}
	return out
}

// solveHomography runs the 8x8 direct linear solve with h33 = 1.
func solveHomography(src, dst [4]geometry.Point2D) (geometry.Homography, error) {
	// For each pair (X,Y) -> (x,y):
	//   h11 X + h12 Y + h13 - h31 X x - h32 Y x = x
	//   h21 X + h22 Y + h23 - h31 X y - h32 Y y = y
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		X, Y := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y

		A.Set(i*2, 0, X)
		A.Set(i*2, 1, Y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -X*x)
		A.Set(i*2, 7, -Y*x)
		B.SetVec(i*2, x)

		A.Set(i*2+1, 3, X)
		A.Set(i*2+1, 4, Y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -X*y)
		A.Set(i*2+1, 7, -Y*y)
		B.SetVec(i*2+1, y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}

	var h geometry.Homography
	for i := 0; i < 8; i++ {
		v := params.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return geometry.Homography{}, fmt.Errorf("%w: non-finite homography", ErrDegenerateQuad)
		}
		h[i] = v
	}
	h[8] = 1
	return h, nil
}

// Estimate computes the transform for a detected quad. The rectified
// rectangle takes the longer of each pair of opposite edges as its width
// and height, and the canonical corners map onto (0,0), (W,0), (W,H) and
// (0,H). desired is the physical page size that MapPoint scales into.
func Estimate(q Quad, desired geometry.Size) (*TransformMetadata, error) {
	if !desired.Positive() {
		return nil, fmt.Errorf("desired dimensions must be positive, got %.3fx%.3f",
			desired.Width, desired.Height)
	}

	c, err := Canonicalize(q)
	if err != nil {
		return nil, err
	}

	width := math.Max(c.TopLeft.Distance(c.TopRight), c.BottomLeft.Distance(c.BottomRight))
	height := math.Max(c.TopLeft.Distance(c.BottomLeft), c.TopRight.Distance(c.BottomRight))
	rectified := geometry.NewSize(width, height)

	dst := [4]geometry.Point2D{
		{X: 0, Y: 0},
		{X: width, Y: 0},
		{X: width, Y: height},
		{X: 0, Y: height},
	}
	src := c.Points()

	h, err := computeHomography(src, dst)
	if err != nil {
		return nil, err
	}

	tol := reprojectTol * math.Max(width, height)
	for i := range src {
		got, ok := h.Apply(src[i])
		if !ok || got.Distance(dst[i]) > tol {
			return nil, fmt.Errorf("%w: corner %d reprojects off target", ErrDegenerateQuad, i)
		}
	}

	return &TransformMetadata{
		matrix:    h,
		corners:   c,
		rectified: rectified,
		desired:   desired,
	}, nil
}
