package rectify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schliweb/docscan/internal/geometry"
)

func unitSquare() [4]geometry.Point {
	return [4]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

func TestComputeHomography_Identity(t *testing.T) {
	h, ok := computeHomography(unitSquare(), unitSquare())
	require.True(t, ok)

	for _, p := range []geometry.Point{
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0.25, Y: 0.75}, {X: 0.5, Y: 0.5},
	} {
		x, y := applyHomography(h, p.X, p.Y)
		assert.InDelta(t, p.X, x, 1e-9)
		assert.InDelta(t, p.Y, y, 1e-9)
	}
}

func TestComputeHomography_ScaleToRect(t *testing.T) {
	dst := [4]geometry.Point{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100}}
	h, ok := computeHomography(unitSquare(), dst)
	require.True(t, ok)

	x, y := applyHomography(h, 0.5, 0.5)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 50, y, 1e-9)

	x, y = applyHomography(h, 1, 1)
	assert.InDelta(t, 200, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)
}

func TestComputeHomography_PerspectiveCorners(t *testing.T) {
	// A proper projective warp: the square onto a trapezoid. All four
	// correspondences must be met exactly.
	dst := [4]geometry.Point{{X: 10, Y: 20}, {X: 90, Y: 10}, {X: 80, Y: 95}, {X: 20, Y: 85}}
	src := unitSquare()
	h, ok := computeHomography(src, dst)
	require.True(t, ok)

	for i := 0; i < 4; i++ {
		x, y := applyHomography(h, src[i].X, src[i].Y)
		assert.InDeltaf(t, dst[i].X, x, 1e-6, "corner %d x", i)
		assert.InDeltaf(t, dst[i].Y, y, 1e-6, "corner %d y", i)
	}
}

func TestComputeHomography_CollinearSingular(t *testing.T) {
	p := [4]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	_, ok := computeHomography(p, unitSquare())
	assert.False(t, ok)
}

func TestApplyHomography_ZeroDenominator(t *testing.T) {
	h := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 0}
	x, y := applyHomography(h, 3, 4)
	assert.Equal(t, -1e9, x)
	assert.Equal(t, -1e9, y)
}
