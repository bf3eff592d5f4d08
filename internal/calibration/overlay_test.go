package calibration

import (
	"os"
	"testing"

	"ricebraille/internal/page"
	"ricebraille/pkg/colorutil"
)

// TestWarpPage verifies the rectified image size and that the page fills it.
func TestWarpPage(t *testing.T) {
	frame := syntheticPage(320, 240, pageCorners, colorutil.Black, colorutil.White)
	defer frame.Close()

	q, err := QuadFromImagePoints(pageCorners)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := Estimate(q, page.StandardBraille().Dimensions())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	rect := WarpPage(frame, meta)
	defer rect.Close()

	w, h := meta.RectifiedPixels()
	if rect.Cols() != w || rect.Rows() != h {
		t.Fatalf("rectified %dx%d, want %dx%d", rect.Cols(), rect.Rows(), w, h)
	}
	if v := rect.GetUCharAt(h/2, (w/2)*3); v != 255 {
		t.Fatalf("center of rectified page = %d, want 255", v)
	}
}

// TestWriteOverlays verifies both debug images are written.
func TestWriteOverlays(t *testing.T) {
	frame := syntheticPage(320, 240, pageCorners, colorutil.Black, colorutil.White)
	defer frame.Close()

	q, _ := QuadFromImagePoints(pageCorners)
	layout := page.StandardBraille()
	meta, err := Estimate(q, layout.Dimensions())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	paths, err := WriteOverlays(t.TempDir(), 7, frame, meta, layout)
	if err != nil {
		t.Fatalf("WriteOverlays: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %v", paths)
	}
	for _, p := range paths {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Errorf("missing overlay %s: %v", p, err)
		}
	}
}

// TestGridMarks verifies cell origins land on the page in the frame and map
// back to their physical positions.
func TestGridMarks(t *testing.T) {
	q, _ := QuadFromImagePoints(pageCorners)
	layout := page.StandardBraille()
	meta, err := Estimate(q, layout.Dimensions())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	marks := GridMarks(meta, layout)
	if len(marks) != layout.Rows*layout.Cols {
		t.Fatalf("expected %d marks, got %d", layout.Rows*layout.Cols, len(marks))
	}
	for _, i := range []int{0, 14*layout.Cols + 13, len(marks) - 1} {
		c := page.GridCoord{Row: i / layout.Cols, Col: i % layout.Cols}
		back, ok := meta.MapPoint(marks[i])
		if !ok || back.Distance(layout.CellOrigin(c)) > 1e-6 {
			t.Errorf("mark %v maps back to %v, want %v", c, back, layout.CellOrigin(c))
		}
		if marks[i].X < 50 || marks[i].X > 260 || marks[i].Y < 40 || marks[i].Y > 200 {
			t.Errorf("mark %v at %v lies outside the page quad's bounds", c, marks[i])
		}
	}
}
