// Package testutil provides synthetic document images and assertion
// helpers shared by the package tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schliweb/docscan/internal/geometry"
	"github.com/schliweb/docscan/internal/imgproc"
)

// ImageSize represents common frame dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test frame sizes.
	SmallSize   = ImageSize{320, 240}
	MediumSize  = ImageSize{640, 480}
	PreviewSize = ImageSize{1280, 720}
)

// DocumentImageConfig holds configuration for a synthetic camera frame
// containing a bright document sheet on a darker background.
type DocumentImageConfig struct {
	Size       ImageSize
	Quad       geometry.Quad
	Background color.Color
	Paper      color.Color
	NoiseLevel int   // 0 disables noise; otherwise max per-channel jitter
	NoiseSeed  int64 // deterministic noise
}

// DefaultDocumentConfig returns a centered axis-aligned sheet covering
// roughly half of a medium frame.
func DefaultDocumentConfig() DocumentImageConfig {
	return DocumentImageConfig{
		Size:       MediumSize,
		Quad:       CenteredQuad(MediumSize.Width, MediumSize.Height, 0.7),
		Background: color.RGBA{40, 40, 40, 255},
		Paper:      color.RGBA{235, 235, 235, 255},
	}
}

// CenteredQuad returns an axis-aligned quad centered in a w x h frame
// whose sides span the given fraction of the frame dimensions.
func CenteredQuad(w, h int, fraction float64) geometry.Quad {
	fw, fh := float64(w), float64(h)
	dx := fw * (1 - fraction) / 2
	dy := fh * (1 - fraction) / 2
	return geometry.Quad{
		{X: dx, Y: dy},
		{X: fw - dx, Y: dy},
		{X: fw - dx, Y: fh - dy},
		{X: dx, Y: fh - dy},
	}
}

// GenerateDocumentImage renders the configured sheet into a fresh frame.
func GenerateDocumentImage(cfg DocumentImageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	for y := 0; y < cfg.Size.Height; y++ {
		for x := 0; x < cfg.Size.Width; x++ {
			if quadContains(cfg.Quad, float64(x)+0.5, float64(y)+0.5) {
				img.Set(x, y, cfg.Paper)
			}
		}
	}

	if cfg.NoiseLevel > 0 {
		addNoise(img, cfg.NoiseLevel, cfg.NoiseSeed)
	}
	return img
}

// GenerateGrayDocument renders a bright axis-aligned rectangle on a dark
// grayscale background, for the low-level image-processing tests.
func GenerateGrayDocument(w, h int, rect image.Rectangle, bg, fg uint8) *imgproc.Gray {
	g := imgproc.NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := bg
			if image.Pt(x, y).In(rect) {
				v = fg
			}
			g.Set(x, y, v)
		}
	}
	return g
}

// quadContains tests point-in-convex-polygon by consistent cross-product
// sign over the quad's edges.
func quadContains(q geometry.Quad, x, y float64) bool {
	sign := 0
	for i := 0; i < 4; i++ {
		a, b := q[i], q[(i+1)%4]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

func addNoise(img *image.RGBA, level int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := int(img.Pix[i+c]) + rng.Intn(2*level+1) - level
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			img.Pix[i+c] = uint8(v)
		}
	}
}

// AssertQuadNear asserts that each corner of got lies within tol pixels
// of the matching corner of want.
func AssertQuadNear(t *testing.T, want, got geometry.Quad, tol float64) {
	t.Helper()
	for i := range want {
		assert.InDeltaf(t, want[i].X, got[i].X, tol, "corner %d x", i)
		assert.InDeltaf(t, want[i].Y, got[i].Y, tol, "corner %d y", i)
	}
}
