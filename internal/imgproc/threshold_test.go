package imgproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bimodalGray(w, h int, dark, bright uint8) *Gray {
	g := NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := dark
			if x >= w/2 {
				v = bright
			}
			g.Set(x, y, v)
		}
	}
	return g
}

func TestOtsuLevel_Bimodal(t *testing.T) {
	g := bimodalGray(100, 50, 30, 220)
	level := OtsuLevel(g)
	assert.GreaterOrEqual(t, level, uint8(30))
	assert.Less(t, level, uint8(220))
}

func TestOtsuThreshold_SeparatesModes(t *testing.T) {
	g := bimodalGray(100, 50, 30, 220)
	binary := OtsuThreshold(g)

	assert.Equal(t, uint8(0), binary.At(10, 25))
	assert.Equal(t, uint8(255), binary.At(90, 25))
}

func TestOtsuLevel_Uniform(t *testing.T) {
	g := NewGray(10, 10)
	for i := range g.Pix {
		g.Pix[i] = 128
	}
	// Single-mode input has no meaningful split; the call must not panic
	// and the binarization must be uniform.
	binary := OtsuThreshold(g)
	first := binary.Pix[0]
	for _, v := range binary.Pix {
		assert.Equal(t, first, v)
	}
}

func TestThreshold(t *testing.T) {
	g := NewGray(3, 1)
	g.Pix = []uint8{10, 100, 200}
	out := Threshold(g, 100)
	assert.Equal(t, []uint8{0, 0, 255}, out.Pix)
}

func TestAdaptiveThreshold_LocalContrast(t *testing.T) {
	// Dark pixels beside a bright square fall below their local mean and
	// become background; the square interior stays foreground.
	w, h := 64, 64
	g := NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, uint8(x)) // gentle gradient
		}
	}
	for y := 20; y < 44; y++ {
		for x := 20; x < 44; x++ {
			g.Set(x, y, 250)
		}
	}

	binary := AdaptiveThreshold(g, 15, 10)
	assert.Equal(t, uint8(255), binary.At(32, 32))
	assert.Equal(t, uint8(0), binary.At(18, 32))
}

func TestAdaptiveThreshold_WindowNormalization(t *testing.T) {
	g := bimodalGray(20, 20, 10, 240)
	// Even window sizes are promoted to the next odd value; tiny windows
	// are raised to 3. Both must produce a valid raster.
	for _, window := range []int{0, 2, 4} {
		out := AdaptiveThreshold(g, window, 5)
		assert.Len(t, out.Pix, 400)
	}
}
