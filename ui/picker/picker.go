// Package picker provides the fyne window used to click page corners when
// automatic detection fails.
package picker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"

	"ricebraille/internal/calibration"
	"ricebraille/pkg/colorutil"
)

// ErrAppUsed is returned by a second capture on the same Picker; a fyne
// application can only be run once per process.
var ErrAppUsed = errors.New("picker window already used in this process")

const markerRadius = 6

// Picker shows a frame and forwards clicks in frame pixel coordinates.
type Picker struct {
	Title     string
	MaxWidth  int
	MaxHeight int
	Debug     bool

	mu   sync.Mutex
	used bool
}

// New creates a picker whose preview fits within maxWidth x maxHeight.
func New(maxWidth, maxHeight int) *Picker {
	return &Picker{
		Title:     "Click page corners",
		MaxWidth:  maxWidth,
		MaxHeight: maxHeight,
	}
}

// CapturePointer implements calibration.PointerSource. It blocks until the
// handler is satisfied, the user cancels with Escape or q, the window is
// closed, or ctx is done.
func (p *Picker) CapturePointer(ctx context.Context, frame image.Image, h calibration.PointerHandler) error {
	p.mu.Lock()
	if p.used {
		p.mu.Unlock()
		return ErrAppUsed
	}
	p.used = true
	p.mu.Unlock()

	preview, scale := Preview(frame, p.MaxWidth, p.MaxHeight)
	pb := preview.Bounds()
	log.Printf("CapturePointer: frame %dx%d shown at %dx%d (scale %.3f)",
		frame.Bounds().Dx(), frame.Bounds().Dy(), pb.Dx(), pb.Dy(), scale)

	a := app.New()
	win := a.NewWindow(p.Title)

	status := widget.NewLabel(prompt(0))
	markers := container.NewWithoutLayout()
	var clicks int
	var closeOnce sync.Once
	closeWin := func() { closeOnce.Do(win.Close) }

	img := newTapImage(preview, func(pos fyne.Position, size fyne.Size) {
		x, y := ToFrame(pos, size, pb.Dx(), pb.Dy(), scale)
		if p.Debug {
			log.Printf("CapturePointer: click %d at widget (%.0f,%.0f) -> frame (%.1f,%.1f)",
				clicks+1, pos.X, pos.Y, x, y)
		}
		if clicks < len(colorutil.CornerColors) {
			dot := fynecanvas.NewCircle(colorutil.CornerColors[clicks])
			dot.Resize(fyne.NewSize(2*markerRadius, 2*markerRadius))
			dot.Move(fyne.NewPos(pos.X-markerRadius, pos.Y-markerRadius))
			markers.Add(dot)
		}
		clicks++
		status.SetText(prompt(clicks))
		if h.HandlePointer(calibration.PointerEvent{Kind: calibration.PointerDown, X: x, Y: y}) {
			closeWin()
		}
	})

	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape || ev.Name == fyne.KeyQ {
			h.HandlePointer(calibration.PointerEvent{Kind: calibration.PointerCancel})
			closeWin()
		}
	})

	win.SetContent(container.NewBorder(nil, status, nil, nil, container.NewStack(img, markers)))
	win.Resize(fyne.NewSize(float32(pb.Dx()), float32(pb.Dy())+status.MinSize().Height))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			closeWin()
		case <-done:
		}
	}()

	win.ShowAndRun()
	close(done)

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func prompt(clicked int) string {
	if clicked >= 4 {
		return "All corners captured"
	}
	return fmt.Sprintf("Click corner %d of 4 (any order). Esc or q cancels.", clicked+1)
}

// Preview downscales img to fit within maxW x maxH and returns it with the
// applied scale factor. Images that already fit are returned unchanged.
func Preview(img image.Image, maxW, maxH int) (image.Image, float64) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || maxW <= 0 || maxH <= 0 {
		return img, 1
	}
	scale := math.Min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	if scale >= 1 {
		return img, 1
	}
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}

// ToFrame converts a position inside a widget of the given size, showing
// a previewW x previewH image stretched to fill it, back to frame pixels.
func ToFrame(pos fyne.Position, size fyne.Size, previewW, previewH int, scale float64) (float64, float64) {
	if size.Width <= 0 || size.Height <= 0 || scale <= 0 {
		return 0, 0
	}
	px := float64(pos.X) / float64(size.Width) * float64(previewW)
	py := float64(pos.Y) / float64(size.Height) * float64(previewH)
	return px / scale, py / scale
}

// tapImage is an image that reports taps relative to its own bounds.
type tapImage struct {
	widget.BaseWidget
	img   *fynecanvas.Image
	onTap func(pos fyne.Position, size fyne.Size)
}

func newTapImage(img image.Image, onTap func(fyne.Position, fyne.Size)) *tapImage {
	ci := fynecanvas.NewImageFromImage(img)
	ci.FillMode = fynecanvas.ImageFillStretch
	b := img.Bounds()
	ci.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))

	t := &tapImage{img: ci, onTap: onTap}
	t.ExtendBaseWidget(t)
	return t
}

func (t *tapImage) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.img)
}

// Tapped handles left-click events.
func (t *tapImage) Tapped(ev *fyne.PointEvent) {
	size := t.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	if t.onTap != nil {
		t.onTap(ev.Position, size)
	}
}
