package tracking

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ricebraille/pkg/geometry"
)

// Format selects the record layout.
type Format string

const (
	// FormatLong has one fingertip per record: frame,finger,x,y.
	FormatLong Format = "long"
	// FormatLandmarks has one frame per record: a label followed by
	// x,y,z for thumb, index, middle, ring and pinky.
	FormatLandmarks Format = "landmarks"
)

// Options controls coordinate interpretation.
type Options struct {
	Format Format `yaml:"format"`
	// Normalized coordinates are in [0,1] and scaled by FrameWidth and
	// FrameHeight.
	Normalized  bool `yaml:"normalized"`
	FrameWidth  int  `yaml:"frame_width"`
	FrameHeight int  `yaml:"frame_height"`
	// Mirrored flips x, for trackers that ran on a horizontally flipped image.
	Mirrored bool `yaml:"mirrored"`
}

// DefaultOptions reads pixel coordinates in the long format.
func DefaultOptions() Options {
	return Options{Format: FormatLong}
}

// Validate checks the options.
func (o Options) Validate() error {
	switch o.Format {
	case FormatLong, FormatLandmarks:
	default:
		return fmt.Errorf("unknown sample format %q", o.Format)
	}
	if (o.Normalized || o.Mirrored) && (o.FrameWidth <= 0 || o.FrameHeight <= 0) {
		return fmt.Errorf("normalized or mirrored samples need a positive frame size")
	}
	return nil
}

// Reader decodes samples from CSV.
type Reader struct {
	opts  Options
	csv   *csv.Reader
	line  int
	frame int
	queue []Sample
}

// NewReader creates a reader over r.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	return &Reader{opts: opts, csv: cr}, nil
}

// Read returns the next sample, or io.EOF.
func (r *Reader) Read() (Sample, error) {
	for len(r.queue) == 0 {
		rec, err := r.csv.Read()
		if err != nil {
			return Sample{}, err
		}
		r.line++
		samples, err := r.decode(rec)
		if err != nil {
			if r.line == 1 && isHeader(rec) {
				continue
			}
			return Sample{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		r.queue = samples
	}
	s := r.queue[0]
	r.queue = r.queue[1:]
	return s, nil
}

// ReadAll returns every remaining sample.
func (r *Reader) ReadAll() ([]Sample, error) {
	var out []Sample
	for {
		s, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

// ReadFile loads all samples from a CSV file.
func ReadFile(path string, opts Options) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open samples: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f, opts)
	if err != nil {
		return nil, err
	}
	return r.ReadAll()
}

func (r *Reader) decode(rec []string) ([]Sample, error) {
	switch r.opts.Format {
	case FormatLandmarks:
		return r.decodeLandmarks(rec)
	default:
		s, err := r.decodeLong(rec)
		if err != nil {
			return nil, err
		}
		return []Sample{s}, nil
	}
}

func (r *Reader) decodeLong(rec []string) (Sample, error) {
	if len(rec) != 4 {
		return Sample{}, fmt.Errorf("expected 4 fields, got %d", len(rec))
	}
	frame, err := strconv.Atoi(strings.TrimSpace(rec[0]))
	if err != nil {
		return Sample{}, fmt.Errorf("bad frame %q", rec[0])
	}
	finger, err := ParseFinger(rec[1])
	if err != nil {
		return Sample{}, err
	}
	p, err := r.point(rec[2], rec[3])
	if err != nil {
		return Sample{}, err
	}
	return Sample{Frame: frame, Finger: finger, Position: p}, nil
}

// decodeLandmarks numbers frames by record order since the layout carries
// only a label.
func (r *Reader) decodeLandmarks(rec []string) ([]Sample, error) {
	want := 1 + 3*len(Fingers)
	if len(rec) != want {
		return nil, fmt.Errorf("expected %d fields, got %d", want, len(rec))
	}
	out := make([]Sample, 0, len(Fingers))
	for i, f := range Fingers {
		col := 1 + 3*i
		p, err := r.point(rec[col], rec[col+1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		out = append(out, Sample{Frame: r.frame, Finger: f, Position: p})
	}
	r.frame++
	return out, nil
}

func (r *Reader) point(xs, ys string) (geometry.Point2D, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("bad x %q", xs)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("bad y %q", ys)
	}

	w, h := float64(r.opts.FrameWidth), float64(r.opts.FrameHeight)
	if r.opts.Normalized {
		x *= w
		y *= h
	}
	if r.opts.Mirrored {
		x = w - x
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

// isHeader reports whether a record's numeric columns hold text.
func isHeader(rec []string) bool {
	for _, f := range rec[1:] {
		if _, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err == nil {
			return false
		}
	}
	return len(rec) > 1
}
