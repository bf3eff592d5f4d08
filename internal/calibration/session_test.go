package calibration

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// TestSession_AutoSuccess walks the happy path.
func TestSession_AutoSuccess(t *testing.T) {
	auto := &fakeDetector{name: "auto", succeedOn: 1, quad: perspectiveQuad}
	s := NewSession(NewFrameSelector(auto, nil, letter))
	if s.ID == "" || s.State() != StateInit {
		t.Fatalf("unexpected new session %q in %s", s.ID, s.State())
	}

	if _, err := s.Run(context.Background(), &fakeSource{count: 100}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []State{StateInit, StateSelectingFrame, StateAutoDetect, StateCalibrated}
	if !reflect.DeepEqual(s.History(), want) {
		t.Fatalf("history %v, want %v", s.History(), want)
	}
	if meta, err := s.Result(); meta == nil || err != nil {
		t.Fatalf("Result = %v, %v", meta, err)
	}
}

// TestSession_ManualFailure walks auto then manual to Failed.
func TestSession_ManualFailure(t *testing.T) {
	sp := &ScriptedPointer{Events: []PointerEvent{{Kind: PointerCancel}}}
	s := NewSession(NewFrameSelector(&fakeDetector{name: "auto"}, NewManualDetector(sp), letter))

	_, err := s.Run(context.Background(), &fakeSource{count: 100})
	if !errors.Is(err, ErrCalibrationFailed) {
		t.Fatalf("expected ErrCalibrationFailed, got %v", err)
	}
	want := []State{StateInit, StateSelectingFrame, StateAutoDetect, StateManualDetect, StateFailed}
	if !reflect.DeepEqual(s.History(), want) {
		t.Fatalf("history %v, want %v", s.History(), want)
	}
	if len(s.Attempts()) != 12 {
		t.Fatalf("expected 11 auto + 1 manual attempts, got %d", len(s.Attempts()))
	}
}

// TestSession_RunTwice verifies terminal sessions refuse to run again.
func TestSession_RunTwice(t *testing.T) {
	auto := &fakeDetector{name: "auto", succeedOn: 1, quad: perspectiveQuad}
	s := NewSession(NewFrameSelector(auto, nil, letter))
	if _, err := s.Run(context.Background(), &fakeSource{count: 100}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := s.Run(context.Background(), &fakeSource{count: 100}); !errors.Is(err, ErrSessionDone) {
		t.Fatalf("expected ErrSessionDone, got %v", err)
	}
	if !StateCalibrated.Terminal() || !StateFailed.Terminal() || StateAutoDetect.Terminal() {
		t.Fatal("unexpected terminal states")
	}
	if StateManualDetect.String() != "manual-detect" {
		t.Fatalf("unexpected state name %q", StateManualDetect.String())
	}
}
