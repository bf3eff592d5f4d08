package calibration

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// State is a calibration session's lifecycle position.
type State int

const (
	StateInit State = iota
	StateSelectingFrame
	StateAutoDetect
	StateManualDetect
	StateCalibrated
	StateFailed
)

var stateNames = map[State]string{
	StateInit:           "init",
	StateSelectingFrame: "selecting-frame",
	StateAutoDetect:     "auto-detect",
	StateManualDetect:   "manual-detect",
	StateCalibrated:     "calibrated",
	StateFailed:         "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCalibrated || s == StateFailed
}

// Session drives one FrameSelector through the calibration lifecycle.
type Session struct {
	ID string

	selector *FrameSelector
	state    State
	history  []State
	meta     *TransformMetadata
	err      error
}

// NewSession creates a session in StateInit.
func NewSession(sel *FrameSelector) *Session {
	return &Session{
		ID:       uuid.NewString(),
		selector: sel,
		state:    StateInit,
		history:  []State{StateInit},
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// History returns every state visited, in order.
func (s *Session) History() []State {
	out := make([]State, len(s.history))
	copy(out, s.history)
	return out
}

// Result returns the transform and error of a finished session.
func (s *Session) Result() (*TransformMetadata, error) { return s.meta, s.err }

// Attempts returns the detection attempts made so far.
func (s *Session) Attempts() []Attempt { return s.selector.Attempts() }

// Run calibrates against src. It may be called once; later calls return
// ErrSessionDone.
func (s *Session) Run(ctx context.Context, src FrameSource) (*TransformMetadata, error) {
	if s.state != StateInit {
		return nil, fmt.Errorf("session %s in state %s: %w", s.ID, s.state, ErrSessionDone)
	}

	s.transition(StateSelectingFrame)
	meta, err := s.selector.run(ctx, src, func(stage Stage) {
		if stage.Manual {
			s.transition(StateManualDetect)
		} else {
			s.transition(StateAutoDetect)
		}
	})
	if err != nil {
		s.err = err
		s.transition(StateFailed)
		return nil, err
	}

	s.meta = meta
	s.transition(StateCalibrated)
	return meta, nil
}

func (s *Session) transition(to State) {
	log.Printf("Session %s: %s -> %s", s.ID, s.state, to)
	s.state = to
	s.history = append(s.history, to)
}
