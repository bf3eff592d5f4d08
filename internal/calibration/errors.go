package calibration

import "errors"

var (
	// ErrCalibrationFailed means every detection strategy was exhausted
	// without producing a transform.
	ErrCalibrationFailed = errors.New("calibration failed")

	// ErrFrameRead means a candidate frame could not be retrieved.
	ErrFrameRead = errors.New("frame read failed")

	// ErrDegenerateQuad means four points were supplied but they are
	// coincident, collinear or self-intersecting.
	ErrDegenerateQuad = errors.New("degenerate quadrilateral")

	// ErrNoQuad means automatic detection found no 4-vertex contour.
	ErrNoQuad = errors.New("no quadrilateral found")

	// ErrCancelled means manual capture ended before four corners were
	// collected.
	ErrCancelled = errors.New("corner capture cancelled")

	// ErrSessionDone means Run was called on a session that already
	// reached a terminal state.
	ErrSessionDone = errors.New("calibration session already finished")
)
