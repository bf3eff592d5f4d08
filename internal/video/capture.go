// Package video provides random-access frame sources backed by video files
// or still images.
package video

import (
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

// Capture reads frames from a video file by seeking.
type Capture struct {
	Path string

	mu         sync.Mutex
	cap        *gocv.VideoCapture
	frameCount int
	width      int
	height     int
	fps        float64
}

// Open opens a video file.
func Open(path string) (*Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}

	c := &Capture{
		Path:       path,
		cap:        vc,
		frameCount: int(vc.Get(gocv.VideoCaptureFrameCount)),
		width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
		fps:        vc.Get(gocv.VideoCaptureFPS),
	}
	log.Printf("Open: %s %dx%d, %d frames at %.2f fps", path, c.width, c.height, c.frameCount, c.fps)
	return c, nil
}

// FrameCount returns the container's reported frame count.
func (c *Capture) FrameCount() int { return c.frameCount }

// FrameSize returns the frame width and height in pixels.
func (c *Capture) FrameSize() (int, int) { return c.width, c.height }

// FPS returns the reported frame rate.
func (c *Capture) FPS() float64 { return c.fps }

// Frame seeks to frame i and decodes it. The caller owns the Mat.
func (c *Capture) Frame(i int) (gocv.Mat, error) {
	if i < 0 || i >= c.frameCount {
		return gocv.NewMat(), fmt.Errorf("frame %d out of range [0,%d)", i, c.frameCount)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap == nil {
		return gocv.NewMat(), fmt.Errorf("capture is closed")
	}
	c.cap.Set(gocv.VideoCapturePosFrames, float64(i))

	frame := gocv.NewMat()
	if ok := c.cap.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.NewMat(), fmt.Errorf("could not read frame %d of %s", i, c.Path)
	}
	return frame, nil
}

// Close releases the underlying capture.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cap == nil {
		return nil
	}
	err := c.cap.Close()
	c.cap = nil
	return err
}
