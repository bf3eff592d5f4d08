package tracking

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ricebraille/pkg/geometry"
)

// TestReader_Long reads pixel samples with a header and comments.
func TestReader_Long(t *testing.T) {
	in := "frame,finger,x,y\n# warm-up\n10, index, 640.5, 360\n11,Thumb,1,2\n"
	r, err := NewReader(strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []Sample{
		{Frame: 10, Finger: Index, Position: geometry.Point2D{X: 640.5, Y: 360}},
		{Frame: 11, Finger: Thumb, Position: geometry.Point2D{X: 1, Y: 2}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestReader_Normalized scales and mirrors normalized coordinates.
func TestReader_Normalized(t *testing.T) {
	opts := Options{Format: FormatLong, Normalized: true, Mirrored: true, FrameWidth: 1000, FrameHeight: 500}
	r, err := NewReader(strings.NewReader("3,pinky,0.25,0.5\n"), opts)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	s, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Position != (geometry.Point2D{X: 750, Y: 250}) {
		t.Fatalf("position = %v, want (750,250)", s.Position)
	}
}

// TestReader_Landmarks expands one frame record into five fingertips.
func TestReader_Landmarks(t *testing.T) {
	header := "Frame,ThumbX1,ThumbY1,ThumbZ1,IndexX1,IndexY1,IndexZ1,MiddleX1,MiddleY1,MiddleZ1,RingX1,RingY1,RingZ1,PinkyX1,PinkyY1,PinkyZ1\n"
	row := "Video1,0.1,0.2,0,0.3,0.4,0,0.5,0.6,0,0.7,0.8,0,0.9,1.0,0\n"
	opts := Options{Format: FormatLandmarks, Normalized: true, FrameWidth: 100, FrameHeight: 10}
	r, err := NewReader(strings.NewReader(header+row+row), opts)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(got))
	}
	if got[1].Finger != Index || got[1].Frame != 0 || got[6].Frame != 1 {
		t.Fatalf("unexpected ordering %+v / %+v", got[1], got[6])
	}
	if p := got[4].Position; !(abs(p.X-90) < 1e-9 && abs(p.Y-10) < 1e-9) {
		t.Fatalf("pinky at %v, want (90,10)", p)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TestReader_Errors reports malformed records with their line.
func TestReader_Errors(t *testing.T) {
	cases := map[string]string{
		"field count": "1,index,2\n",
		"bad frame":   "x1,index,2,3\n",
		"bad finger":  "1,toe,2,3\n",
		"bad y":       "1,index,2,z\n",
		"second line": "1,index,2,3\n2,index,q,3\n",
	}
	for name, in := range cases {
		r, err := NewReader(strings.NewReader(in), DefaultOptions())
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		if _, err := r.ReadAll(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

// TestOptions_Validate requires a frame size for normalized input.
func TestOptions_Validate(t *testing.T) {
	if err := (Options{Format: FormatLong, Normalized: true}).Validate(); err == nil {
		t.Fatal("expected error without frame size")
	}
	if err := (Options{Format: "wide"}).Validate(); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

// TestParseFinger round-trips every name.
func TestParseFinger(t *testing.T) {
	for _, f := range Fingers {
		got, err := ParseFinger(strings.ToUpper(f.String()))
		if err != nil || got != f {
			t.Errorf("ParseFinger(%q) = %v, %v", f, got, err)
		}
	}
}

// TestReadFile loads samples from disk.
func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.csv")
	if err := os.WriteFile(path, []byte("0,ring,5,6\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path, DefaultOptions())
	if err != nil || len(got) != 1 || got[0].Finger != Ring {
		t.Fatalf("ReadFile = %v, %v", got, err)
	}
	if _, err := ReadFile(path+".missing", DefaultOptions()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
