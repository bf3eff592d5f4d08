// Package colorutil provides shared color utilities for overlays and masking.
package colorutil

import (
	"image/color"
	"math"
)

// Common overlay colors.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// CornerColors marks TL, TR, BR, BL in that order.
var CornerColors = [4]color.RGBA{Red, Green, Blue, Yellow}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	switch {
	case diff == 0:
		h = 0
	case maxC == r:
		h = 60 * math.Mod((g-b)/diff, 6)
	case maxC == g:
		h = 60 * ((b-r)/diff + 2)
	default:
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	return h / 2, s, v
}

// HSVRange is an inclusive color range in OpenCV HSV space.
type HSVRange struct {
	HueMin float64 `json:"hue_min" yaml:"hue_min"`
	HueMax float64 `json:"hue_max" yaml:"hue_max"`
	SatMin float64 `json:"sat_min" yaml:"sat_min"`
	SatMax float64 `json:"sat_max" yaml:"sat_max"`
	ValMin float64 `json:"val_min" yaml:"val_min"`
	ValMax float64 `json:"val_max" yaml:"val_max"`
}

// RangeAround builds an HSVRange centered on an RGB color. Hue tolerance is
// in OpenCV hue units, saturation and value tolerances in 0-255 units.
// Bounds are clamped; hue wrap-around is not modelled.
func RangeAround(c color.RGBA, hueTol, satTol, valTol float64) HSVRange {
	h, s, v := RGBToHSV(float64(c.R), float64(c.G), float64(c.B))
	return HSVRange{
		HueMin: clamp(h-hueTol, 0, 180),
		HueMax: clamp(h+hueTol, 0, 180),
		SatMin: clamp(s-satTol, 0, 255),
		SatMax: clamp(s+satTol, 0, 255),
		ValMin: clamp(v-valTol, 0, 255),
		ValMax: clamp(v+valTol, 0, 255),
	}
}

// Valid reports whether every min is at most its max.
func (r HSVRange) Valid() bool {
	return r.HueMin <= r.HueMax && r.SatMin <= r.SatMax && r.ValMin <= r.ValMax
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
