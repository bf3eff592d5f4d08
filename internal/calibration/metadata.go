package calibration

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"ricebraille/pkg/geometry"
)

// TransformMetadata is the result of a successful calibration. It is
// immutable once built and safe to share between goroutines.
type TransformMetadata struct {
	matrix    geometry.Homography
	corners   CanonicalCorners
	rectified geometry.Size
	desired   geometry.Size
}

// NewTransformMetadata builds metadata from an already known matrix.
func NewTransformMetadata(h geometry.Homography, corners CanonicalCorners, rectified, desired geometry.Size) (*TransformMetadata, error) {
	if !rectified.Positive() || !desired.Positive() {
		return nil, fmt.Errorf("transform extents must be positive")
	}
	if _, ok := h.Inverse(); !ok {
		return nil, fmt.Errorf("%w: singular matrix", ErrDegenerateQuad)
	}
	return &TransformMetadata{matrix: h, corners: corners, rectified: rectified, desired: desired}, nil
}

// Matrix returns a copy of the pixel-to-rectified homography.
func (m *TransformMetadata) Matrix() geometry.Homography { return m.matrix }

// Corners returns the canonical source corners the transform was built from.
func (m *TransformMetadata) Corners() CanonicalCorners { return m.corners }

// RectifiedSize is the rectified rectangle in pixels.
func (m *TransformMetadata) RectifiedSize() geometry.Size { return m.rectified }

// DesiredSize is the physical page size MapPoint scales into.
func (m *TransformMetadata) DesiredSize() geometry.Size { return m.desired }

// RectifiedPixels returns the integer warp dimensions covering the
// rectified rectangle.
func (m *TransformMetadata) RectifiedPixels() (int, int) {
	return int(math.Ceil(m.rectified.Width)), int(math.Ceil(m.rectified.Height))
}

// Rectify maps a source pixel into the rectified rectangle. ok is false
// when the point projects to infinity.
func (m *TransformMetadata) Rectify(p geometry.Point2D) (geometry.Point2D, bool) {
	return m.matrix.Apply(p)
}

// MapPoint maps a source pixel to physical page coordinates: the point is
// rectified and then scaled by desired/rectified on each axis. It is
// defined for any pixel, including ones outside the page quad.
func (m *TransformMetadata) MapPoint(p geometry.Point2D) (geometry.Point2D, bool) {
	r, ok := m.matrix.Apply(p)
	if !ok {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{
		X: r.X * m.desired.Width / m.rectified.Width,
		Y: r.Y * m.desired.Height / m.rectified.Height,
	}, true
}

// Unmap converts a physical page position back to a source pixel.
func (m *TransformMetadata) Unmap(p geometry.Point2D) (geometry.Point2D, bool) {
	inv, ok := m.matrix.Inverse()
	if !ok {
		return geometry.Point2D{}, false
	}
	r := geometry.Point2D{
		X: p.X * m.rectified.Width / m.desired.Width,
		Y: p.Y * m.rectified.Height / m.desired.Height,
	}
	return inv.Apply(r)
}

// metadataFile is the on-disk form of a calibration.
type metadataFile struct {
	Matrix    [9]float64       `json:"matrix"`
	Corners   CanonicalCorners `json:"corners"`
	Rectified geometry.Size    `json:"rectified"`
	Desired   geometry.Size    `json:"desired"`
}

// SaveToFile writes the calibration as JSON.
func (m *TransformMetadata) SaveToFile(path string) error {
	data, err := json.MarshalIndent(metadataFile{
		Matrix:    m.matrix,
		Corners:   m.corners,
		Rectified: m.rectified,
		Desired:   m.desired,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadMetadata reads a calibration written by SaveToFile.
func LoadMetadata(path string) (*TransformMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration: %w", err)
	}
	var f metadataFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse calibration: %w", err)
	}
	return NewTransformMetadata(f.Matrix, f.Corners, f.Rectified, f.Desired)
}
