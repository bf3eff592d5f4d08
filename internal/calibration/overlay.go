package calibration

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"ricebraille/internal/page"
	"ricebraille/pkg/colorutil"
	"ricebraille/pkg/geometry"
)

// DrawCorners marks the canonical corners on img, TL, TR, BR and BL in
// red, green, blue and yellow, joined by the page outline.
func DrawCorners(img *gocv.Mat, c CanonicalCorners) {
	pts := c.Points()
	for i := range pts {
		a := pts[i].ImagePoint()
		b := pts[(i+1)%4].ImagePoint()
		gocv.Line(img, a, b, colorutil.Black, 4)
		gocv.Line(img, a, b, colorutil.White, 2)
	}
	for i, p := range pts {
		gocv.Circle(img, p.ImagePoint(), 8, colorutil.CornerColors[i], -1)
	}
}

// HomographyMat converts h to a 3x3 CV_64F Mat. The caller owns it.
func HomographyMat(h geometry.Homography) gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, h[r*3+c])
		}
	}
	return m
}

// WarpPage rectifies frame with the calibration. The caller owns the
// returned Mat.
func WarpPage(frame gocv.Mat, meta *TransformMetadata) gocv.Mat {
	hm := HomographyMat(meta.Matrix())
	defer hm.Close()

	w, h := meta.RectifiedPixels()
	dst := gocv.NewMat()
	gocv.WarpPerspective(frame, &dst, hm, image.Point{w, h})
	return dst
}

// DrawGrid draws the layout's margins and cell boundaries on a rectified
// page image.
func DrawGrid(rect *gocv.Mat, meta *TransformMetadata, layout page.Layout) {
	rs, ds := meta.RectifiedSize(), meta.DesiredSize()
	sx, sy := rs.Width/ds.Width, rs.Height/ds.Height
	toPx := func(x, y float64) image.Point {
		return geometry.Point2D{X: x * sx, Y: y * sy}.ImagePoint()
	}

	cell := layout.CellSize()
	left, top := layout.LeftMargin, layout.TopMargin
	right := left + layout.PrintableWidth()
	bottom := top + layout.PrintableHeight()

	for c := 0; c <= layout.Cols; c++ {
		x := left + float64(c)*cell.Width
		gocv.Line(rect, toPx(x, top), toPx(x, bottom), colorutil.Cyan, 1)
	}
	for r := 0; r <= layout.Rows; r++ {
		y := top + float64(r)*cell.Height
		gocv.Line(rect, toPx(left, y), toPx(right, y), colorutil.Cyan, 1)
	}
}

// GridMarks projects the origin of every cell back onto the source frame,
// row-major. Cells whose origin maps to infinity are skipped.
func GridMarks(meta *TransformMetadata, layout page.Layout) []geometry.Point2D {
	marks := make([]geometry.Point2D, 0, layout.Rows*layout.Cols)
	for r := 0; r < layout.Rows; r++ {
		for c := 0; c < layout.Cols; c++ {
			p, ok := meta.Unmap(layout.CellOrigin(page.GridCoord{Row: r, Col: c}))
			if ok {
				marks = append(marks, p)
			}
		}
	}
	return marks
}

// DrawGridMarks dots each cell origin on the source frame.
func DrawGridMarks(img *gocv.Mat, meta *TransformMetadata, layout page.Layout) {
	for _, p := range GridMarks(meta, layout) {
		gocv.Circle(img, p.ImagePoint(), 1, colorutil.Magenta, -1)
	}
}

// WriteOverlays saves the annotated frame, with corners and projected cell
// origins, and the rectified page with its grid into dir. It returns the
// written paths.
func WriteOverlays(dir string, frameIndex int, frame gocv.Mat, meta *TransformMetadata, layout page.Layout) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create debug dir: %w", err)
	}

	annotated := frame.Clone()
	defer annotated.Close()
	DrawGridMarks(&annotated, meta, layout)
	DrawCorners(&annotated, meta.Corners())

	rect := WarpPage(frame, meta)
	defer rect.Close()
	DrawGrid(&rect, meta, layout)

	cornersPath := filepath.Join(dir, fmt.Sprintf("frame%05d_corners.png", frameIndex))
	rectPath := filepath.Join(dir, fmt.Sprintf("frame%05d_rectified.png", frameIndex))

	if !gocv.IMWrite(cornersPath, annotated) {
		return nil, fmt.Errorf("failed to write %s", cornersPath)
	}
	if !gocv.IMWrite(rectPath, rect) {
		return []string{cornersPath}, fmt.Errorf("failed to write %s", rectPath)
	}

	log.Printf("WriteOverlays: wrote %s and %s", cornersPath, rectPath)
	return []string{cornersPath, rectPath}, nil
}
