// Package tracking reads fingertip positions produced by an external hand
// tracker.
package tracking

import (
	"fmt"
	"strings"

	"ricebraille/pkg/geometry"
)

// Finger identifies a fingertip.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// Fingers lists every finger in landmark column order.
var Fingers = []Finger{Thumb, Index, Middle, Ring, Pinky}

var fingerNames = [...]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f >= 0 && int(f) < len(fingerNames) {
		return fingerNames[f]
	}
	return fmt.Sprintf("Finger(%d)", int(f))
}

// ParseFinger accepts a finger name, case-insensitively.
func ParseFinger(s string) (Finger, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fingerNames {
		if n == name {
			return Finger(i), nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", s)
}

// Sample is one fingertip position in one frame, in source pixels.
type Sample struct {
	Frame    int
	Finger   Finger
	Position geometry.Point2D
}

func (s Sample) String() string {
	return fmt.Sprintf("frame %d %s (%.1f,%.1f)", s.Frame, s.Finger, s.Position.X, s.Position.Y)
}
