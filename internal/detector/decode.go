package detector

import (
	"log/slog"

	"github.com/schliweb/docscan/internal/geometry"
)

// Plausibility bounds for a decoded corner quadrilateral.
const (
	minQuadAreaRatio = 0.05 // of the image area
	minSideRatio     = 0.02 // of the shorter image dimension
)

// decodeHeatmaps turns the model output (shape [1, 4, h, w], one
// probability map per corner) into a canonical quadrilateral in image
// space. It returns false when any peak is below minPeak or the resulting
// quad is implausibly small.
func decodeHeatmaps(pred []float32, shape []int64, imgW, imgH int, minPeak float32) (geometry.Quad, bool) {
	if len(shape) != 4 || shape[1] != 4 {
		slog.Warn("unexpected heatmap output shape", "shape", shape)
		return geometry.Quad{}, false
	}
	hmH := int(shape[2])
	hmW := int(shape[3])
	if hmH <= 0 || hmW <= 0 || len(pred) < 4*hmH*hmW {
		slog.Warn("heatmap output too small", "len", len(pred))
		return geometry.Quad{}, false
	}

	var quad geometry.Quad
	for c := 0; c < 4; c++ {
		base := c * hmH * hmW

		maxIdx := 0
		maxVal := pred[base]
		for i := 1; i < hmH*hmW; i++ {
			if v := pred[base+i]; v > maxVal {
				maxVal = v
				maxIdx = i
			}
		}
		if maxVal < minPeak {
			slog.Debug("heatmap peak below threshold", "corner", c, "peak", maxVal)
			return geometry.Quad{}, false
		}

		px := maxIdx % hmW
		py := maxIdx / hmW
		fx, fy := refineSubPixel(pred[base:base+hmH*hmW], hmW, hmH, px, py)

		scaleX := float64(imgW) / float64(hmW)
		scaleY := float64(imgH) / float64(hmH)
		quad[c] = geometry.Point{X: fx * scaleX, Y: fy * scaleY}.Clamp(imgW, imgH)
	}

	quad = quad.SortCanonical()
	imgArea := float64(imgW) * float64(imgH)
	if quad.Area() < minQuadAreaRatio*imgArea {
		slog.Debug("decoded quad area too small", "area", quad.Area())
		return geometry.Quad{}, false
	}
	minDim := float64(imgW)
	if float64(imgH) < minDim {
		minDim = float64(imgH)
	}
	if quad.MinSide() < minSideRatio*minDim {
		slog.Debug("decoded quad side too small", "min_side", quad.MinSide())
		return geometry.Quad{}, false
	}
	return quad, true
}

// refineSubPixel computes a weighted centroid over the 3x3 neighborhood of
// the argmax cell, clamping negative heatmap values to zero.
func refineSubPixel(channel []float32, w, h, px, py int) (float64, float64) {
	x0, x1 := maxInt(0, px-1), minInt(w-1, px+1)
	y0, y1 := maxInt(0, py-1), minInt(h-1, py+1)

	var sumW, sumX, sumY float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			wv := float64(channel[y*w+x])
			if wv < 0 {
				wv = 0
			}
			sumW += wv
			sumX += wv * float64(x)
			sumY += wv * float64(y)
		}
	}
	if sumW <= 0 {
		return float64(px), float64(py)
	}
	return sumX / sumW, sumY / sumW
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
