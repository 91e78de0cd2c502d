package imgproc

// EdgeMap extracts edges from a raster using Sobel gradient magnitudes with
// two-level hysteresis: pixels at or above high are edges, pixels at or
// above low are kept only when an 8-neighbor is a strong edge.
func EdgeMap(g *Gray, low, high int) *Gray {
	w, h := g.Width, g.Height
	mag := sobelMagnitude(g)

	out := NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mag[y*w+x] >= high {
				out.Pix[y*w+x] = 255
			}
		}
	}
	// Promote weak edges adjacent to strong ones.
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			if out.Pix[idx] != 0 || mag[idx] < low {
				continue
			}
			if hasStrongNeighbor(out, x, y) {
				out.Pix[idx] = 255
			}
		}
	}
	return out
}

func sobelMagnitude(g *Gray) []int {
	w, h := g.Width, g.Height
	mag := make([]int, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl := int(g.Pix[(y-1)*w+x-1])
			tc := int(g.Pix[(y-1)*w+x])
			tr := int(g.Pix[(y-1)*w+x+1])
			ml := int(g.Pix[y*w+x-1])
			mr := int(g.Pix[y*w+x+1])
			bl := int(g.Pix[(y+1)*w+x-1])
			bc := int(g.Pix[(y+1)*w+x])
			br := int(g.Pix[(y+1)*w+x+1])

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			mag[y*w+x] = gx + gy
		}
	}
	return mag
}

func hasStrongNeighbor(b *Gray, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if b.Pix[(y+dy)*b.Width+x+dx] != 0 {
				return true
			}
		}
	}
	return false
}
