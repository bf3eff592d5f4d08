package calibration

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"ricebraille/internal/video"
	"ricebraille/pkg/geometry"
)

// PointerKind distinguishes pointer events.
type PointerKind int

const (
	// PointerDown is a click or tap at (X, Y) in frame pixels.
	PointerDown PointerKind = iota
	// PointerCancel aborts the capture.
	PointerCancel
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerCancel:
		return "cancel"
	}
	return fmt.Sprintf("PointerKind(%d)", int(k))
}

// PointerEvent is one user input during manual capture.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
}

// PointerHandler consumes pointer events. HandlePointer returns true once
// no further events are wanted.
type PointerHandler interface {
	HandlePointer(ev PointerEvent) bool
}

// PointerSource displays a frame and delivers events to h until h reports
// done, the user closes the display, or ctx is cancelled. It may call h
// from any goroutine but not concurrently.
type PointerSource interface {
	CapturePointer(ctx context.Context, frame image.Image, h PointerHandler) error
}

// CornerAccumulator collects up to four clicked corners.
type CornerAccumulator struct {
	mu        sync.Mutex
	points    []geometry.Point2D
	cancelled bool
}

// NewCornerAccumulator returns an empty accumulator.
func NewCornerAccumulator() *CornerAccumulator {
	return &CornerAccumulator{points: make([]geometry.Point2D, 0, 4)}
}

// HandlePointer implements PointerHandler. Clicks after the fourth, or
// after a cancel, are ignored.
func (a *CornerAccumulator) HandlePointer(ev PointerEvent) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelled || len(a.points) == 4 {
		return true
	}
	switch ev.Kind {
	case PointerCancel:
		a.cancelled = true
		return true
	case PointerDown:
		a.points = append(a.points, geometry.Point2D{X: ev.X, Y: ev.Y})
	}
	return len(a.points) == 4
}

// Points returns a copy of the collected points in click order.
func (a *CornerAccumulator) Points() []geometry.Point2D {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]geometry.Point2D, len(a.points))
	copy(out, a.points)
	return out
}

// Complete reports whether four points were collected without a cancel.
func (a *CornerAccumulator) Complete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.cancelled && len(a.points) == 4
}

// Cancelled reports whether a cancel event arrived.
func (a *CornerAccumulator) Cancelled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelled
}

// ManualDetector asks the user to click the four page corners.
type ManualDetector struct {
	Source PointerSource
	Debug  bool
}

// NewManualDetector creates a manual detector reading from src.
func NewManualDetector(src PointerSource) *ManualDetector {
	return &ManualDetector{Source: src}
}

// Name implements Detector.
func (d *ManualDetector) Name() string { return "manual" }

// DetectCorners implements Detector. Each call uses its own accumulator.
func (d *ManualDetector) DetectCorners(ctx context.Context, frame gocv.Mat) (Quad, error) {
	if d.Source == nil {
		return Quad{}, fmt.Errorf("%w: no pointer source", ErrCancelled)
	}
	img, err := video.MatToImage(frame)
	if err != nil {
		return Quad{}, fmt.Errorf("failed to convert frame: %w", err)
	}

	acc := NewCornerAccumulator()
	if err := d.Source.CapturePointer(ctx, img, acc); err != nil {
		if ctx.Err() != nil {
			return Quad{}, ctx.Err()
		}
		return Quad{}, fmt.Errorf("pointer capture failed: %w", err)
	}

	pts := acc.Points()
	if d.Debug {
		log.Printf("ManualDetector: collected %d points, cancelled=%v", len(pts), acc.Cancelled())
	}
	if !acc.Complete() {
		return Quad{}, fmt.Errorf("%w: got %d of 4 corners", ErrCancelled, len(pts))
	}
	return QuadFromPoints(pts)
}

// ScriptedPointer replays a fixed event list. It backs corner values given
// on the command line and tests.
type ScriptedPointer struct {
	Events []PointerEvent
	// Calls counts CapturePointer invocations.
	Calls int
}

// ScriptedCorners returns a source that clicks the given points in order.
func ScriptedCorners(pts ...geometry.Point2D) *ScriptedPointer {
	events := make([]PointerEvent, len(pts))
	for i, p := range pts {
		events[i] = PointerEvent{Kind: PointerDown, X: p.X, Y: p.Y}
	}
	return &ScriptedPointer{Events: events}
}

// CapturePointer implements PointerSource.
func (s *ScriptedPointer) CapturePointer(ctx context.Context, _ image.Image, h PointerHandler) error {
	s.Calls++
	for _, ev := range s.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if h.HandlePointer(ev) {
			return nil
		}
	}
	return nil
}
