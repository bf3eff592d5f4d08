// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// FromImagePoint converts an integer image point.
func FromImagePoint(p image.Point) Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// ImagePoint rounds the point to the nearest pixel.
func (p Point2D) ImagePoint() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Positive reports whether both dimensions are greater than zero.
func (s Size) Positive() bool {
	return s.Width > 0 && s.Height > 0
}

// Homography represents a 3x3 projective transformation matrix, row-major.
// [h0 h1 h2]
// [h3 h4 h5]
// [h6 h7 h8]
type Homography [9]float64

// Apply applies the transform to a point, including the homogeneous divide.
// The second result is false when the point maps to infinity.
func (h Homography) Apply(p Point2D) (Point2D, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return Point2D{}, false
	}
	return Point2D{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Determinant returns the determinant of the matrix.
func (h Homography) Determinant() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
}

// Inverse returns the inverse transform, if it exists.
func (h Homography) Inverse() (Homography, bool) {
	det := h.Determinant()
	if math.Abs(det) < 1e-12 {
		return Homography{}, false
	}

	inv := 1.0 / det
	return Homography{
		(h[4]*h[8] - h[5]*h[7]) * inv,
		(h[2]*h[7] - h[1]*h[8]) * inv,
		(h[1]*h[5] - h[2]*h[4]) * inv,
		(h[5]*h[6] - h[3]*h[8]) * inv,
		(h[0]*h[8] - h[2]*h[6]) * inv,
		(h[2]*h[3] - h[0]*h[5]) * inv,
		(h[3]*h[7] - h[4]*h[6]) * inv,
		(h[1]*h[6] - h[0]*h[7]) * inv,
		(h[0]*h[4] - h[1]*h[3]) * inv,
	}, true
}

// Rows returns the matrix as a [3][3]float64 array.
func (h Homography) Rows() [3][3]float64 {
	return [3][3]float64{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], h[8]},
	}
}
