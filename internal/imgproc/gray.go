// Package imgproc provides the classical pixel operations the geometric
// document detector is sequenced from: grayscale conversion, blurring,
// thresholding, morphology, edge extraction and contour tracing.
package imgproc

import (
	"image"
)

// Gray is an 8-bit single-channel raster. Binary images use 0 and 255.
type Gray struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewGray allocates a zeroed raster.
func NewGray(width, height int) *Gray {
	return &Gray{Pix: make([]uint8, width*height), Width: width, Height: height}
}

// At returns the pixel value at (x, y) without bounds checking.
func (g *Gray) At(x, y int) uint8 { return g.Pix[y*g.Width+x] }

// Set writes the pixel value at (x, y) without bounds checking.
func (g *Gray) Set(x, y int, v uint8) { g.Pix[y*g.Width+x] = v }

// Clone returns a deep copy.
func (g *Gray) Clone() *Gray {
	out := NewGray(g.Width, g.Height)
	copy(out.Pix, g.Pix)
	return out
}

// FromImage converts an image to grayscale using the BT.601 luma weights.
func FromImage(img image.Image) *Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// 16-bit channels; weights sum to 1.
			lum := (299*uint32(r>>8) + 587*uint32(g>>8) + 114*uint32(b>>8)) / 1000
			out.Pix[y*w+x] = uint8(lum)
		}
	}
	return out
}

// gaussian5 is the binomial 5-tap kernel (1 4 6 4 1), normalized by 16 per pass.
var gaussian5 = [5]uint32{1, 4, 6, 4, 1}

// GaussianBlur applies a separable 5x5 Gaussian blur. Border pixels use
// clamped sampling.
func GaussianBlur(g *Gray) *Gray {
	w, h := g.Width, g.Height
	tmp := NewGray(w, h)
	out := NewGray(w, h)

	// Horizontal pass
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			var sum uint32
			for k := -2; k <= 2; k++ {
				sx := clamp(x+k, 0, w-1)
				sum += gaussian5[k+2] * uint32(g.Pix[row+sx])
			}
			tmp.Pix[row+x] = uint8(sum / 16)
		}
	}
	// Vertical pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum uint32
			for k := -2; k <= 2; k++ {
				sy := clamp(y+k, 0, h-1)
				sum += gaussian5[k+2] * uint32(tmp.Pix[sy*w+x])
			}
			out.Pix[y*w+x] = uint8(sum / 16)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
