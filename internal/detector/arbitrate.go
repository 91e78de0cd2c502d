package detector

// Area-ratio bounds for preferring one detector over the other. The
// heatmap model tends to capture borderless or glare-washed pages the
// contour threshold misses, but also mis-fires on tiny degenerate quads.
const (
	minHeatmapAreaRatio = 0.10
	maxContourAreaRatio = 1.15
)

// Arbitrate fuses the heatmap and contour detector outcomes for a w x h
// frame into a single outcome. The function is pure and total: identical
// inputs always produce the identical result.
//
// Rules, in order:
//  1. An absent side yields the other.
//  2. A contour fallback rectangle yields the heatmap quad.
//  3. A heatmap quad under 10% of the contour area yields the contour quad.
//  4. A heatmap quad over 115% of the contour area yields the heatmap quad.
//  5. Otherwise the contour quad wins.
func Arbitrate(heatmap, contour Outcome, w, h int) Outcome {
	if !heatmap.HasQuad() {
		return contour
	}
	if !contour.HasQuad() {
		return heatmap
	}

	if contour.Kind == KindFallback || isFallbackQuad(contour.Quad, w, h) {
		return Outcome{Kind: KindDocument, Quad: heatmap.Quad.SortCanonical()}
	}

	hq := heatmap.Quad.SortCanonical()
	cq := contour.Quad.SortCanonical()

	heatmapArea := hq.Area()
	contourArea := cq.Area()

	if heatmapArea < minHeatmapAreaRatio*contourArea {
		return Outcome{Kind: contour.Kind, Quad: cq}
	}
	// A degenerate contour quad makes the ratio infinite, so the heatmap
	// hypothesis wins just like any oversized one.
	if contourArea == 0 || heatmapArea/contourArea > maxContourAreaRatio {
		return Outcome{Kind: KindDocument, Quad: hq}
	}
	return Outcome{Kind: contour.Kind, Quad: cq}
}
