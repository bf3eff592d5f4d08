package calibration

import (
	"image/color"

	"gocv.io/x/gocv"

	"ricebraille/pkg/colorutil"
)

// EstimateBackground averages the outermost pixel ring of a BGR frame.
// The page is assumed not to touch the frame border.
func EstimateBackground(frame gocv.Mat) color.RGBA {
	rows, cols := frame.Rows(), frame.Cols()
	if rows == 0 || cols == 0 || frame.Channels() != 3 {
		return color.RGBA{A: 255}
	}

	var r, g, b, count uint64
	add := func(y, x int) {
		b += uint64(frame.GetUCharAt(y, x*3+0))
		g += uint64(frame.GetUCharAt(y, x*3+1))
		r += uint64(frame.GetUCharAt(y, x*3+2))
		count++
	}
	for x := 0; x < cols; x++ {
		add(0, x)
		add(rows-1, x)
	}
	for y := 1; y < rows-1; y++ {
		add(y, 0)
		add(y, cols-1)
	}

	return color.RGBA{
		R: uint8(r / count),
		G: uint8(g / count),
		B: uint8(b / count),
		A: 255,
	}
}

// BackgroundMask returns a single-channel mask that is 255 where the BGR
// frame falls inside rng. The caller owns the returned Mat.
func BackgroundMask(frame gocv.Mat, rng colorutil.HSVRange) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	lower := gocv.NewScalar(rng.HueMin, rng.SatMin, rng.ValMin, 0)
	upper := gocv.NewScalar(rng.HueMax, rng.SatMax, rng.ValMax, 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)
	return mask
}

// maskBackground zeroes the background pixels of gray.
func maskBackground(gray, frame gocv.Mat, rng colorutil.HSVRange) gocv.Mat {
	bg := BackgroundMask(frame, rng)
	defer bg.Close()

	keep := gocv.NewMat()
	defer keep.Close()
	gocv.BitwiseNot(bg, &keep)

	out := gocv.NewMatWithSize(gray.Rows(), gray.Cols(), gray.Type())
	out.SetTo(gocv.NewScalar(0, 0, 0, 0))
	gray.CopyToWithMask(&out, keep)
	return out
}
