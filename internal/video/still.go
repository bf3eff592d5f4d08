package video

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Still serves one decoded image as every frame of a fixed-length source.
type Still struct {
	Path  string
	count int
	frame gocv.Mat
}

// NewStill wraps img as a source of count identical frames.
func NewStill(img image.Image, count int) (*Still, error) {
	if count < 1 {
		return nil, fmt.Errorf("frame count must be at least 1, got %d", count)
	}
	m, err := ImageToMat(img)
	if err != nil {
		return nil, err
	}
	return &Still{count: count, frame: m}, nil
}

// LoadStill decodes a PNG, JPEG, TIFF or BMP file.
func LoadStill(path string, count int) (*Still, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	s, err := NewStill(img, count)
	if err != nil {
		return nil, err
	}
	s.Path = path
	return s, nil
}

// LoadImage decodes an image file with the registered decoders.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// FrameCount implements calibration.FrameSource.
func (s *Still) FrameCount() int { return s.count }

// FrameSize returns the image width and height in pixels.
func (s *Still) FrameSize() (int, int) { return s.frame.Cols(), s.frame.Rows() }

// Frame returns a copy of the image. The caller owns the Mat.
func (s *Still) Frame(i int) (gocv.Mat, error) {
	if i < 0 || i >= s.count {
		return gocv.NewMat(), fmt.Errorf("frame %d out of range [0,%d)", i, s.count)
	}
	return s.frame.Clone(), nil
}

// Close releases the decoded frame.
func (s *Still) Close() error {
	return s.frame.Close()
}
