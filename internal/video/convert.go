package video

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
)

// forStripes runs fn over horizontal stripes of height rows in parallel.
func forStripes(height int, fn func(yStart, yEnd int)) {
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		if startY >= height {
			break
		}
		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			fn(yStart, yEnd)
		}(startY, endY)
	}
	wg.Wait()
}

// ImageToMat converts an image to a BGR Mat owned by the caller.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return gocv.NewMat(), fmt.Errorf("image is empty")
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	forStripes(height, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
				mat.SetUCharAt(y, x*3+0, uint8(b>>8))
				mat.SetUCharAt(y, x*3+1, uint8(g>>8))
				mat.SetUCharAt(y, x*3+2, uint8(r>>8))
			}
		}
	})
	return mat, nil
}

// MatToImage converts a BGR or grayscale Mat to an RGBA image.
func MatToImage(mat gocv.Mat) (*image.RGBA, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("mat is empty")
	}
	ch := mat.Channels()
	if ch != 1 && ch != 3 {
		return nil, fmt.Errorf("unsupported channel count %d", ch)
	}

	h, w := mat.Rows(), mat.Cols()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	stride := img.Stride

	forStripes(h, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			rowOffset := y * stride
			for x := 0; x < w; x++ {
				pix := rowOffset + x*4
				if ch == 1 {
					v := mat.GetUCharAt(y, x)
					img.Pix[pix+0], img.Pix[pix+1], img.Pix[pix+2] = v, v, v
				} else {
					img.Pix[pix+0] = mat.GetUCharAt(y, x*3+2)
					img.Pix[pix+1] = mat.GetUCharAt(y, x*3+1)
					img.Pix[pix+2] = mat.GetUCharAt(y, x*3+0)
				}
				img.Pix[pix+3] = 255
			}
		}
	})
	return img, nil
}
