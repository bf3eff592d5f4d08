// Package app ties configuration, frame sources, calibration and page
// lookup into one pipeline state shared by the command-line tools.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"ricebraille/internal/calibration"
	"ricebraille/internal/config"
	"ricebraille/internal/locate"
	"ricebraille/internal/page"
	"ricebraille/internal/tracking"
	"ricebraille/internal/video"
	"ricebraille/pkg/geometry"
)

// Source is a frame source that must be released.
type Source interface {
	calibration.FrameSource
	FrameSize() (int, int)
	Close() error
}

// State holds one run of the pipeline.
type State struct {
	mu sync.RWMutex

	Config *config.Config
	Layout page.Layout
	Page   *page.Page

	Source     Source
	SourcePath string
	still      bool

	Session     *calibration.Session
	Calibration *calibration.TransformMetadata

	// PointerSource backs the manual fallback; nil disables it.
	PointerSource calibration.PointerSource

	listeners map[EventType][]EventListener
}

// EventType identifies pipeline events.
type EventType int

const (
	EventPageLoaded EventType = iota
	EventSourceOpened
	EventCalibrated
	EventCalibrationFailed
	EventReading
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates pipeline state from a validated configuration.
func NewState(cfg *config.Config) (*State, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layout, err := cfg.ResolveLayout()
	if err != nil {
		return nil, err
	}
	return &State{
		Config:    cfg,
		Layout:    layout,
		listeners: make(map[EventType][]EventListener),
	}, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadPage reads the configured page of a .brf document.
func (s *State) LoadPage(path string) error {
	pages, err := page.LoadDocument(path, s.Layout)
	if err != nil {
		return fmt.Errorf("failed to load page: %w", err)
	}
	idx := s.Config.PageIndex
	if idx >= len(pages) {
		return fmt.Errorf("page %d requested but %s has %d pages", idx, path, len(pages))
	}

	s.mu.Lock()
	s.Page = pages[idx]
	s.mu.Unlock()

	log.Printf("LoadPage: %s page %d of %d (%dx%d cells)", path, idx+1, len(pages), s.Layout.Rows, s.Layout.Cols)
	s.Emit(EventPageLoaded, s.Page)
	return nil
}

// OpenVideo opens a video file as the frame source.
func (s *State) OpenVideo(path string) error {
	c, err := video.Open(path)
	if err != nil {
		return err
	}
	s.setSource(c, path, false)
	return nil
}

// OpenImage uses a still image as a one-frame source.
func (s *State) OpenImage(path string) error {
	st, err := video.LoadStill(path, 1)
	if err != nil {
		return err
	}
	s.setSource(st, path, true)
	return nil
}

func (s *State) setSource(src Source, path string, still bool) {
	s.mu.Lock()
	old := s.Source
	s.Source = src
	s.SourcePath = path
	s.still = still
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	s.Emit(EventSourceOpened, path)
}

// Selector builds the frame selector described by the configuration.
func (s *State) Selector() *calibration.FrameSelector {
	cfg := s.Config

	detect := cfg.Detect
	detect.Debug = cfg.Debug
	auto := calibration.NewAutoDetector(detect)

	var manual calibration.Detector
	if ps := s.pointerSource(); ps != nil {
		md := calibration.NewManualDetector(ps)
		md.Debug = cfg.Debug
		manual = md
	}

	sel := calibration.NewFrameSelector(auto, manual, cfg.DesiredSize(s.Layout))
	sel.Window = cfg.Video
	s.mu.RLock()
	still := s.still
	s.mu.RUnlock()
	if still {
		sel.Window = calibration.StillWindow()
	}
	sel.Debug = cfg.Debug

	if cfg.DebugDir != "" {
		layout := s.Layout
		sel.Inspect = func(frame int, m gocv.Mat, meta *calibration.TransformMetadata) {
			if _, err := calibration.WriteOverlays(cfg.DebugDir, frame, m, meta, layout); err != nil {
				log.Printf("Selector: debug overlay failed: %v", err)
			}
		}
	}
	return sel
}

// pointerSource prefers configured corners over the interactive source.
func (s *State) pointerSource() calibration.PointerSource {
	if len(s.Config.Manual.Corners) == 4 {
		return calibration.ScriptedCorners(s.Config.Manual.Corners...)
	}
	if !s.Config.Manual.Enabled {
		return nil
	}
	return s.PointerSource
}

// Calibrate runs a calibration session over the open source.
func (s *State) Calibrate(ctx context.Context) (*calibration.TransformMetadata, error) {
	s.mu.RLock()
	src := s.Source
	s.mu.RUnlock()
	if src == nil {
		return nil, fmt.Errorf("no video or image opened")
	}

	session := calibration.NewSession(s.Selector())
	s.mu.Lock()
	s.Session = session
	s.mu.Unlock()

	meta, err := session.Run(ctx, src)
	if err != nil {
		s.Emit(EventCalibrationFailed, err)
		return nil, err
	}

	s.mu.Lock()
	s.Calibration = meta
	s.mu.Unlock()
	s.Emit(EventCalibrated, meta)
	return meta, nil
}

// SetCalibration installs a previously saved calibration.
func (s *State) SetCalibration(meta *calibration.TransformMetadata) {
	s.mu.Lock()
	s.Calibration = meta
	s.mu.Unlock()
	s.Emit(EventCalibrated, meta)
}

// TrackingOptions returns the sample options, filling the frame size from
// the open source when the configuration leaves it unset.
func (s *State) TrackingOptions() tracking.Options {
	opts := s.Config.Tracking
	s.mu.RLock()
	src := s.Source
	s.mu.RUnlock()
	if src != nil && (opts.FrameWidth == 0 || opts.FrameHeight == 0) {
		opts.FrameWidth, opts.FrameHeight = src.FrameSize()
	}
	return opts
}

// Locate resolves samples against the calibrated page.
func (s *State) Locate(samples []tracking.Sample) ([]locate.Reading, error) {
	s.mu.RLock()
	meta, p := s.Calibration, s.Page
	s.mu.RUnlock()

	l, err := locate.New(meta, p)
	if err != nil {
		return nil, err
	}
	readings := l.LocateAll(samples)
	for _, r := range readings {
		s.Emit(EventReading, r)
	}
	return readings, nil
}

// LocatePoint resolves a single pixel position.
func (s *State) LocatePoint(p geometry.Point2D) (locate.Reading, error) {
	rs, err := s.Locate([]tracking.Sample{{Finger: tracking.Index, Position: p}})
	if err != nil {
		return locate.Reading{}, err
	}
	return rs[0], nil
}

// Close releases the frame source.
func (s *State) Close() error {
	s.mu.Lock()
	src := s.Source
	s.Source = nil
	s.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Close()
}
