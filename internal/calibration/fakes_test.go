package calibration

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
)

// fakeSource yields small blank frames; indices in fail return an error.
type fakeSource struct {
	count int
	fail  map[int]bool
	reads []int
}

func (s *fakeSource) FrameCount() int { return s.count }

func (s *fakeSource) Frame(i int) (gocv.Mat, error) {
	s.reads = append(s.reads, i)
	if s.fail[i] {
		return gocv.NewMat(), fmt.Errorf("decode error")
	}
	return gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3), nil
}

// fakeDetector fails until its call budget is spent, then returns quad.
type fakeDetector struct {
	name      string
	succeedOn int // 1-based call that succeeds; 0 never succeeds
	quad      Quad
	calls     int
}

func (d *fakeDetector) Name() string { return d.name }

func (d *fakeDetector) DetectCorners(ctx context.Context, _ gocv.Mat) (Quad, error) {
	d.calls++
	if d.succeedOn != 0 && d.calls == d.succeedOn {
		return d.quad, nil
	}
	return Quad{}, ErrNoQuad
}
