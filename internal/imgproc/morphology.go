package imgproc

// Dilate expands the 255 regions of a binary raster with a k x k
// rectangular structuring element.
func Dilate(b *Gray, k int) *Gray {
	return morphRect(b, k, true)
}

// Erode shrinks the 255 regions of a binary raster with a k x k
// rectangular structuring element.
func Erode(b *Gray, k int) *Gray {
	return morphRect(b, k, false)
}

// Close performs morphological closing (dilate then erode), filling gaps
// smaller than the structuring element.
func Close(b *Gray, k int) *Gray {
	return Erode(Dilate(b, k), k)
}

func morphRect(b *Gray, k int, dilate bool) *Gray {
	if k <= 1 {
		return b.Clone()
	}
	half := k / 2
	w, h := b.Width, b.Height
	// Separable: horizontal run then vertical run.
	tmp := NewGray(w, h)
	out := NewGray(w, h)
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			v := morphSampleRow(b, row, x, half, dilate)
			tmp.Pix[row+x] = v
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := morphSampleCol(tmp, x, y, half, dilate)
			out.Pix[y*w+x] = v
		}
	}
	return out
}

func morphSampleRow(b *Gray, row, x, half int, dilate bool) uint8 {
	for k := -half; k <= half; k++ {
		sx := x + k
		if sx < 0 || sx >= b.Width {
			if !dilate {
				// Erosion treats out-of-bounds as background.
				return 0
			}
			continue
		}
		v := b.Pix[row+sx]
		if dilate && v != 0 {
			return 255
		}
		if !dilate && v == 0 {
			return 0
		}
	}
	if dilate {
		return 0
	}
	return 255
}

func morphSampleCol(b *Gray, x, y, half int, dilate bool) uint8 {
	for k := -half; k <= half; k++ {
		sy := y + k
		if sy < 0 || sy >= b.Height {
			if !dilate {
				return 0
			}
			continue
		}
		v := b.Pix[sy*b.Width+x]
		if dilate && v != 0 {
			return 255
		}
		if !dilate && v == 0 {
			return 0
		}
	}
	if dilate {
		return 0
	}
	return 255
}
