package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointOps(t *testing.T) {
	p := Point{X: 3, Y: 4}

	assert.Equal(t, Point{6, 12}, p.Scale(2, 3))
	assert.Equal(t, Point{4, 6}, p.Offset(1, 2))
	assert.InDelta(t, 5.0, Point{0, 0}.Dist(p), 1e-9)
}

func TestPointClamp(t *testing.T) {
	assert.Equal(t, Point{0, 0}, Point{-5, -1}.Clamp(640, 480))
	assert.Equal(t, Point{639, 479}, Point{1000, 1000}.Clamp(640, 480))
	assert.Equal(t, Point{100, 200}, Point{100, 200}.Clamp(640, 480))
}

func TestNewBox(t *testing.T) {
	b := NewBox(10, 20, 2, 4)
	assert.Equal(t, Box{MinX: 2, MinY: 4, MaxX: 10, MaxY: 20}, b)
	assert.Equal(t, 8.0, b.Width())
	assert.Equal(t, 16.0, b.Height())
}

func TestBoxExpandClip(t *testing.T) {
	b := NewBox(10, 10, 20, 20).Expand(15, 5)
	assert.Equal(t, Box{MinX: -5, MinY: 5, MaxX: 35, MaxY: 25}, b)

	clipped := b.Clip(30, 30)
	assert.Equal(t, Box{MinX: 0, MinY: 5, MaxX: 30, MaxY: 25}, clipped)
}

func TestBoxToRect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	r := NewBox(10.2, 10.8, 20.1, 30.9).ToRect(bounds)
	assert.Equal(t, image.Rect(10, 10, 21, 31), r)

	// Fully outside collapses to an empty rect on the border.
	r = NewBox(200, 200, 300, 300).ToRect(bounds)
	assert.Equal(t, 0, r.Dx())
}

func TestBoundingBox(t *testing.T) {
	pts := []Point{{5, 1}, {20, 3}, {18, 30}, {4, 28}}
	b := BoundingBox(pts)
	assert.Equal(t, Box{MinX: 4, MinY: 1, MaxX: 20, MaxY: 30}, b)

	assert.Equal(t, Box{}, BoundingBox(nil))
}
