package imgproc

// OtsuLevel computes the global threshold maximizing between-class variance
// over the intensity histogram.
func OtsuLevel(g *Gray) uint8 {
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 0
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}

	var sumB, wB float64
	var best float64
	var level uint8
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

// Threshold binarizes the raster: pixels strictly above level become 255.
func Threshold(g *Gray, level uint8) *Gray {
	out := NewGray(g.Width, g.Height)
	for i, v := range g.Pix {
		if v > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// OtsuThreshold binarizes using the automatic bimodal level.
func OtsuThreshold(g *Gray) *Gray {
	return Threshold(g, OtsuLevel(g))
}

// AdaptiveThreshold binarizes against a per-pixel local mean over a
// window x window neighborhood minus offset c. Callers must hold the
// device-capability gate for this path; the global Otsu path is the
// stable default.
func AdaptiveThreshold(g *Gray, window int, c int) *Gray {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w, h := g.Width, g.Height
	integral := buildIntegral(g)
	out := NewGray(w, h)
	half := window / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0 := clamp(x-half, 0, w-1)
			y0 := clamp(y-half, 0, h-1)
			x1 := clamp(x+half, 0, w-1)
			y1 := clamp(y+half, 0, h-1)
			area := (x1 - x0 + 1) * (y1 - y0 + 1)
			sum := integralSum(integral, w, x0, y0, x1, y1)
			mean := int(sum) / area
			if int(g.Pix[y*w+x]) > mean-c {
				out.Pix[y*w+x] = 255
			}
		}
	}
	return out
}

func buildIntegral(g *Gray) []uint64 {
	w, h := g.Width, g.Height
	integral := make([]uint64, w*h)
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(g.Pix[y*w+x])
			if y == 0 {
				integral[y*w+x] = rowSum
			} else {
				integral[y*w+x] = integral[(y-1)*w+x] + rowSum
			}
		}
	}
	return integral
}

func integralSum(integral []uint64, w, x0, y0, x1, y1 int) uint64 {
	sum := integral[y1*w+x1]
	if x0 > 0 {
		sum -= integral[y1*w+x0-1]
	}
	if y0 > 0 {
		sum -= integral[(y0-1)*w+x1]
	}
	if x0 > 0 && y0 > 0 {
		sum += integral[(y0-1)*w+x0-1]
	}
	return sum
}
