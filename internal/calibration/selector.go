package calibration

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"ricebraille/pkg/geometry"
)

// FrameSource provides random access to decoded frames.
type FrameSource interface {
	FrameCount() int
	// Frame returns frame i as a BGR Mat owned by the caller.
	Frame(i int) (gocv.Mat, error)
}

// SearchWindow selects candidate frames by their offset from the end of
// the video. Late frames are preferred because the reader's hand has
// usually settled on the page by then.
type SearchWindow struct {
	StartFromEnd     int `yaml:"start_from_end"`
	EndFromEnd       int `yaml:"end_from_end"`
	Step             int `yaml:"step"`
	ReferenceFromEnd int `yaml:"reference_from_end"`
}

// DefaultSearchWindow returns the window 75..25 frames from the end in
// steps of 5, with the manual reference frame 25 from the end.
func DefaultSearchWindow() SearchWindow {
	return SearchWindow{StartFromEnd: 75, EndFromEnd: 25, Step: 5, ReferenceFromEnd: 25}
}

// StillWindow tries only frame 0, for single-image sources.
func StillWindow() SearchWindow {
	return SearchWindow{StartFromEnd: 1, EndFromEnd: 1, Step: 1, ReferenceFromEnd: 1}
}

// Validate checks the window bounds.
func (w SearchWindow) Validate() error {
	if w.Step <= 0 {
		return fmt.Errorf("search step must be positive, got %d", w.Step)
	}
	if w.EndFromEnd < 1 || w.StartFromEnd < w.EndFromEnd {
		return fmt.Errorf("search window must satisfy start >= end >= 1, got %d..%d",
			w.StartFromEnd, w.EndFromEnd)
	}
	if w.ReferenceFromEnd < 1 {
		return fmt.Errorf("reference offset must be at least 1, got %d", w.ReferenceFromEnd)
	}
	return nil
}

// Candidates lists frame indices frameCount-offset for offset running
// from StartFromEnd down to EndFromEnd inclusive. Indices outside
// [0, frameCount) are dropped and duplicates removed.
func (w SearchWindow) Candidates(frameCount int) []int {
	if frameCount <= 0 || w.Step <= 0 {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for off := w.StartFromEnd; off >= w.EndFromEnd; off -= w.Step {
		i := frameCount - off
		if i < 0 || i >= frameCount || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

// Reference returns the frame used for manual capture, clamped into the
// video, or -1 for an empty video.
func (w SearchWindow) Reference(frameCount int) int {
	if frameCount <= 0 {
		return -1
	}
	i := frameCount - w.ReferenceFromEnd
	if i < 0 {
		i = 0
	}
	if i >= frameCount {
		i = frameCount - 1
	}
	return i
}

// Stage is one strategy in the calibration plan.
type Stage struct {
	Name     string
	Detector Detector
	Frames   []int
	// Manual marks the interactive fallback stage.
	Manual bool
}

// Attempt records one detection try.
type Attempt struct {
	Stage string
	Frame int
	Err   error
}

// FrameSelector runs the calibration plan over a frame source.
type FrameSelector struct {
	Window  SearchWindow
	Auto    Detector
	Manual  Detector // nil disables the manual fallback
	Desired geometry.Size

	// Inspect, if set, is called with the winning frame before it is
	// released.
	Inspect func(frame int, m gocv.Mat, meta *TransformMetadata)

	Debug bool

	attempts []Attempt
}

// NewFrameSelector creates a selector with the default window.
func NewFrameSelector(auto, manual Detector, desired geometry.Size) *FrameSelector {
	return &FrameSelector{
		Window:  DefaultSearchWindow(),
		Auto:    auto,
		Manual:  manual,
		Desired: desired,
	}
}

// Plan returns the ordered stages for a video of frameCount frames.
func (s *FrameSelector) Plan(frameCount int) []Stage {
	var plan []Stage
	if s.Auto != nil {
		plan = append(plan, Stage{Name: s.Auto.Name(), Detector: s.Auto, Frames: s.Window.Candidates(frameCount)})
	}
	if s.Manual != nil {
		if ref := s.Window.Reference(frameCount); ref >= 0 {
			plan = append(plan, Stage{Name: s.Manual.Name(), Detector: s.Manual, Frames: []int{ref}, Manual: true})
		}
	}
	return plan
}

// Attempts returns the attempts made by the last Select.
func (s *FrameSelector) Attempts() []Attempt {
	out := make([]Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

// Select runs the plan and returns the first successful transform.
func (s *FrameSelector) Select(ctx context.Context, src FrameSource) (*TransformMetadata, error) {
	return s.run(ctx, src, nil)
}

func (s *FrameSelector) run(ctx context.Context, src FrameSource, enter func(Stage)) (*TransformMetadata, error) {
	s.attempts = s.attempts[:0]
	count := src.FrameCount()
	plan := s.Plan(count)

	log.Printf("FrameSelector: %d frames, %d stages", count, len(plan))

	for _, stage := range plan {
		if enter != nil {
			enter(stage)
		}
		for _, idx := range stage.Frames {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			meta, err := s.attempt(ctx, src, stage, idx)
			s.attempts = append(s.attempts, Attempt{Stage: stage.Name, Frame: idx, Err: err})
			if err == nil {
				log.Printf("FrameSelector: calibrated on frame %d with %s detector", idx, stage.Name)
				return meta, nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if s.Debug {
				log.Printf("FrameSelector: %s attempt on frame %d failed: %v", stage.Name, idx, err)
			}
		}
	}

	return nil, fmt.Errorf("%w: %d attempts over %d stages", ErrCalibrationFailed, len(s.attempts), len(plan))
}

func (s *FrameSelector) attempt(ctx context.Context, src FrameSource, stage Stage, idx int) (*TransformMetadata, error) {
	frame, err := src.Frame(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", ErrFrameRead, idx, err)
	}
	defer frame.Close()
	if frame.Empty() {
		return nil, fmt.Errorf("%w: frame %d is empty", ErrFrameRead, idx)
	}

	quad, err := stage.Detector.DetectCorners(ctx, frame)
	if err != nil {
		return nil, err
	}

	meta, err := Estimate(quad, s.Desired)
	if err != nil {
		return nil, err
	}

	if s.Inspect != nil {
		s.Inspect(idx, frame, meta)
	}
	return meta, nil
}
