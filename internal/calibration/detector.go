package calibration

import (
	"context"
	"fmt"
	"image"
	"log"
	"sort"

	"gocv.io/x/gocv"

	"ricebraille/pkg/colorutil"
	"ricebraille/pkg/geometry"
)

// Detector finds the page quadrilateral in a single frame.
type Detector interface {
	Name() string
	DetectCorners(ctx context.Context, frame gocv.Mat) (Quad, error)
}

// BackgroundMode selects how the automatic detector masks the table
// surface around the page before edge detection.
type BackgroundMode string

const (
	BackgroundOff   BackgroundMode = "off"
	BackgroundAuto  BackgroundMode = "auto"
	BackgroundRange BackgroundMode = "range"
)

// DetectParams tunes the automatic detector.
type DetectParams struct {
	BlurKernel    int     `yaml:"blur_kernel"`
	BlurPasses    int     `yaml:"blur_passes"`
	CannyLow      float32 `yaml:"canny_low"`
	CannyHigh     float32 `yaml:"canny_high"`
	Dilate        bool    `yaml:"dilate"`
	MaxContours   int     `yaml:"max_contours"`
	EpsilonFactor float64 `yaml:"epsilon_factor"`

	Background      BackgroundMode     `yaml:"background"`
	BackgroundRange colorutil.HSVRange `yaml:"background_range"`
	// Tolerances used when the range is estimated from the frame border.
	HueTolerance float64 `yaml:"hue_tolerance"`
	SatTolerance float64 `yaml:"sat_tolerance"`
	ValTolerance float64 `yaml:"val_tolerance"`

	Debug bool `yaml:"-"`
}

// DefaultDetectParams returns the tuning used for embossed pages: two 5x5
// blur passes flatten the dots so only the sheet outline survives Canny.
func DefaultDetectParams() DetectParams {
	return DetectParams{
		BlurKernel:    5,
		BlurPasses:    2,
		CannyLow:      5,
		CannyHigh:     200,
		MaxContours:   5,
		EpsilonFactor: 0.02,
		Background:    BackgroundOff,
		HueTolerance:  12,
		SatTolerance:  60,
		ValTolerance:  60,
	}
}

// Validate checks that the parameters are usable.
func (p DetectParams) Validate() error {
	if p.BlurKernel < 1 || p.BlurKernel%2 == 0 {
		return fmt.Errorf("blur kernel must be a positive odd number, got %d", p.BlurKernel)
	}
	if p.BlurPasses < 0 {
		return fmt.Errorf("blur passes must not be negative")
	}
	if p.CannyLow < 0 || p.CannyHigh <= p.CannyLow {
		return fmt.Errorf("canny thresholds must satisfy 0 <= low < high, got %v/%v", p.CannyLow, p.CannyHigh)
	}
	if p.MaxContours < 1 {
		return fmt.Errorf("max contours must be at least 1")
	}
	if p.EpsilonFactor <= 0 || p.EpsilonFactor >= 1 {
		return fmt.Errorf("epsilon factor must be in (0, 1), got %v", p.EpsilonFactor)
	}
	switch p.Background {
	case BackgroundOff, BackgroundAuto, "":
	case BackgroundRange:
		if !p.BackgroundRange.Valid() {
			return fmt.Errorf("background range is invalid")
		}
	default:
		return fmt.Errorf("unknown background mode %q", p.Background)
	}
	return nil
}

// AutoDetector finds the page outline with Canny edges and contour
// approximation.
type AutoDetector struct {
	Params DetectParams
}

// NewAutoDetector creates an automatic detector.
func NewAutoDetector(params DetectParams) *AutoDetector {
	return &AutoDetector{Params: params}
}

// Name implements Detector.
func (d *AutoDetector) Name() string { return "auto" }

// DetectCorners implements Detector.
func (d *AutoDetector) DetectCorners(ctx context.Context, frame gocv.Mat) (Quad, error) {
	if err := ctx.Err(); err != nil {
		return Quad{}, err
	}
	if frame.Empty() {
		return Quad{}, fmt.Errorf("%w: empty frame", ErrNoQuad)
	}

	edges := EdgeMap(frame, d.Params)
	defer edges.Close()

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return Quad{}, fmt.Errorf("%w: no contours", ErrNoQuad)
	}

	areas := make([]float64, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		areas[i] = gocv.ContourArea(contours.At(i))
	}

	for rank, idx := range rankContours(areas, d.Params.MaxContours) {
		contour := contours.At(idx)
		epsilon := d.Params.EpsilonFactor * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		pts := approx.ToPoints()
		approx.Close()

		if d.Params.Debug {
			log.Printf("AutoDetector: contour %d (rank %d) area=%.0f vertices=%d",
				idx, rank, areas[idx], len(pts))
		}
		if len(pts) != 4 {
			continue
		}
		q, err := QuadFromImagePoints(pts)
		if err != nil {
			return Quad{}, err
		}
		// A hand over the sheet edge can leave a dart-shaped outline
		if !geometry.IsConvex(q[:]) {
			if d.Params.Debug {
				log.Printf("AutoDetector: contour %d skipped, quadrilateral is not convex", idx)
			}
			continue
		}
		return q, nil
	}

	return Quad{}, fmt.Errorf("%w: none of %d largest contours is a convex quadrilateral",
		ErrNoQuad, min(d.Params.MaxContours, len(areas)))
}

// rankContours returns up to keep contour indices ordered by descending
// area. Equal areas keep their original order.
func rankContours(areas []float64, keep int) []int {
	idx := make([]int, len(areas))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return areas[idx[a]] > areas[idx[b]] })
	if keep < len(idx) {
		idx = idx[:keep]
	}
	return idx
}

// EdgeMap runs the grayscale, mask, blur and Canny steps and returns the
// binary edge image. The caller owns the returned Mat.
func EdgeMap(frame gocv.Mat, params DetectParams) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() == 1 {
		frame.CopyTo(&gray)
	} else {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	}

	if frame.Channels() == 3 {
		if rng, ok := params.backgroundRange(frame); ok {
			masked := maskBackground(gray, frame, rng)
			gray.Close()
			gray = masked
		}
	}
	defer gray.Close()

	k := params.BlurKernel
	for i := 0; i < params.BlurPasses; i++ {
		gocv.GaussianBlur(gray, &gray, image.Point{k, k}, 0, 0, gocv.BorderDefault)
	}

	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, params.CannyLow, params.CannyHigh)

	if params.Dilate {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
		defer kernel.Close()
		gocv.Dilate(edges, &edges, kernel)
	}
	return edges
}

func (p DetectParams) backgroundRange(frame gocv.Mat) (colorutil.HSVRange, bool) {
	switch p.Background {
	case BackgroundRange:
		return p.BackgroundRange, true
	case BackgroundAuto:
		bg := EstimateBackground(frame)
		rng := colorutil.RangeAround(bg, p.HueTolerance, p.SatTolerance, p.ValTolerance)
		if p.Debug {
			log.Printf("EdgeMap: estimated background RGB(%d,%d,%d) -> H[%.0f,%.0f] S[%.0f,%.0f] V[%.0f,%.0f]",
				bg.R, bg.G, bg.B, rng.HueMin, rng.HueMax, rng.SatMin, rng.SatMax, rng.ValMin, rng.ValMax)
		}
		return rng, true
	}
	return colorutil.HSVRange{}, false
}
