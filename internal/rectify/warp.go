package rectify

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/schliweb/docscan/internal/geometry"
)

// warpPerspective warps the quadrilateral region srcQuad from src into a
// target rectangle of size dstW x dstH using inverse homography plus
// bilinear sampling. Returns nil when the homography is degenerate.
func warpPerspective(src image.Image, srcQuad geometry.Quad, dstW, dstH int) image.Image {
	if dstW <= 0 || dstH <= 0 {
		return nil
	}

	// Homography from the destination rectangle to the source quad so
	// each output pixel samples its preimage.
	d0 := geometry.Point{X: 0, Y: 0}
	d1 := geometry.Point{X: float64(dstW - 1), Y: 0}
	d2 := geometry.Point{X: float64(dstW - 1), Y: float64(dstH - 1)}
	d3 := geometry.Point{X: 0, Y: float64(dstH - 1)}
	H, ok := computeHomography(
		[4]geometry.Point{d0, d1, d2, d3},
		[4]geometry.Point{srcQuad[0], srcQuad[1], srcQuad[2], srcQuad[3]},
	)
	if !ok {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	sb := src.Bounds()
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := applyHomography(H, float64(x), float64(y))
			out.Set(x, y, bilinearSample(src, sx+float64(sb.Min.X), sy+float64(sb.Min.Y)))
		}
	}
	return out
}

// warpAffine approximates the perspective mapping with a least-squares
// affine fit over the four correspondences and applies it through
// x/image/draw. The approximation drops the projective terms, which keeps
// the transform on code paths that cannot hit unsupported CPU
// instructions.
func warpAffine(src image.Image, srcQuad geometry.Quad, dstW, dstH int) image.Image {
	if dstW <= 0 || dstH <= 0 {
		return nil
	}

	dst := [4]geometry.Point{
		{X: 0, Y: 0},
		{X: float64(dstW), Y: 0},
		{X: float64(dstW), Y: float64(dstH)},
		{X: 0, Y: float64(dstH)},
	}

	m, ok := fitAffine(srcQuad, dst)
	if !ok {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.ApproxBiLinear.Transform(out, m, src, src.Bounds(), xdraw.Src, nil)
	return out
}

// fitAffine solves the least-squares affine transform taking src[i] to
// dst[i] over four correspondences.
func fitAffine(src geometry.Quad, dst [4]geometry.Point) (f64.Aff3, bool) {
	// Normal equations for [a b c] minimizing sum (a x + b y + c - x')^2,
	// shared for the y' row with a different right-hand side.
	var sxx, sxy, sx, syy, sy float64
	n := 4.0
	for _, p := range src {
		sxx += p.X * p.X
		sxy += p.X * p.Y
		sx += p.X
		syy += p.Y * p.Y
		sy += p.Y
	}
	A := [3][3]float64{
		{sxx, sxy, sx},
		{sxy, syy, sy},
		{sx, sy, n},
	}

	var bx, by [3]float64
	for i, p := range src {
		bx[0] += p.X * dst[i].X
		bx[1] += p.Y * dst[i].X
		bx[2] += dst[i].X
		by[0] += p.X * dst[i].Y
		by[1] += p.Y * dst[i].Y
		by[2] += dst[i].Y
	}

	row0, ok := solve3x3(A, bx)
	if !ok {
		return f64.Aff3{}, false
	}
	row1, ok := solve3x3(A, by)
	if !ok {
		return f64.Aff3{}, false
	}
	return f64.Aff3{row0[0], row0[1], row0[2], row1[0], row1[1], row1[2]}, true
}

func solve3x3(a [3][3]float64, b [3]float64) ([3]float64, bool) {
	m := a
	v := b
	for col := 0; col < 3; col++ {
		pivot := col
		maxAbs := abs(m[col][col])
		for r := col + 1; r < 3; r++ {
			if abs(m[r][col]) > maxAbs {
				maxAbs = abs(m[r][col])
				pivot = r
			}
		}
		if maxAbs == 0 {
			return [3]float64{}, false
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
			v[col], v[pivot] = v[pivot], v[col]
		}
		div := m[col][col]
		for c := col; c < 3; c++ {
			m[col][c] /= div
		}
		v[col] /= div
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			factor := m[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < 3; c++ {
				m[r][c] -= factor * m[col][c]
			}
			v[r] -= factor * v[col]
		}
	}
	return v, true
}

func bilinearSample(src image.Image, x, y float64) color.Color {
	// Samples outside the bounds come back black.
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.RGBA{0, 0, 0, 255}
	}
	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)
	c00 := toRGBA(src.At(x0, y0))
	c10 := toRGBA(src.At(x1, y0))
	c01 := toRGBA(src.At(x0, y1))
	c11 := toRGBA(src.At(x1, y1))
	r := lerp(lerp(c00.R, c10.R, fx), lerp(c01.R, c11.R, fx), fy)
	g := lerp(lerp(c00.G, c10.G, fx), lerp(c01.G, c11.G, fx), fy)
	bl := lerp(lerp(c00.B, c10.B, fx), lerp(c01.B, c11.B, fx), fy)
	a := lerp(lerp(c00.A, c10.A, fx), lerp(c01.A, c11.A, fx), fy)
	return color.RGBA{uint8(r + 0.5), uint8(g + 0.5), uint8(bl + 0.5), uint8(a + 0.5)}
}

type rgba struct{ R, G, B, A float64 }

func toRGBA(c color.Color) rgba {
	r, g, b, a := c.RGBA()
	return rgba{R: float64(r >> 8), G: float64(g >> 8), B: float64(b >> 8), A: float64(a >> 8)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
