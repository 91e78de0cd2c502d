package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schliweb/docscan/internal/testutil"
)

func TestDetector_ArbitratesBothPaths(t *testing.T) {
	cfg := testutil.DefaultDocumentConfig()
	cfg.Quad = testutil.CenteredQuad(640, 480, 0.7)
	img := testutil.GenerateDocumentImage(cfg)

	// Heatmap predicting roughly the same sheet: comparable areas, so the
	// contour hypothesis must win.
	peaks := [4][2]int{{26, 26}, {102, 26}, {102, 102}, {26, 102}}
	heatmap := NewHeatmapDetectorWithRunner(DefaultHeatmapConfig(), &stubRunner{
		pred:  syntheticHeatmaps(peaks, 0.9),
		shape: heatmapShape(),
	})
	contour := NewContourDetector(DefaultContourConfig(), safeProfile())
	det := NewWithDetectors(heatmap, contour)

	outcome := det.DetectCorners(img)
	require.Equal(t, KindDocument, outcome.Kind)
	testutil.AssertQuadNear(t, cfg.Quad.SortCanonical(), outcome.Quad, 8.0)
}

func TestDetector_HeatmapCarriesEmptyFrame(t *testing.T) {
	// Nothing for the contour pipeline; the heatmap hypothesis survives
	// arbitration against the fallback rectangle.
	img := testImage(640, 480)

	peaks := [4][2]int{{13, 13}, {115, 13}, {115, 115}, {13, 115}}
	heatmap := NewHeatmapDetectorWithRunner(DefaultHeatmapConfig(), &stubRunner{
		pred:  syntheticHeatmaps(peaks, 0.9),
		shape: heatmapShape(),
	})
	det := NewWithDetectors(heatmap, NewContourDetector(DefaultContourConfig(), safeProfile()))

	outcome := det.DetectCorners(img)
	require.Equal(t, KindDocument, outcome.Kind)
	assert.InDelta(t, 65.0, outcome.Quad[0].X, 1.5)
}

func TestDetector_NilImage(t *testing.T) {
	det := NewWithDetectors(nil, nil)
	assert.Equal(t, KindNotFound, det.DetectCorners(nil).Kind)
}

func TestDetector_BothAbsentIsFallback(t *testing.T) {
	// Uniform model output and an empty frame: the contour side returns
	// its fallback rectangle and nothing outranks it.
	heatmap := NewHeatmapDetectorWithRunner(DefaultHeatmapConfig(), &stubRunner{
		pred:  make([]float32, 4*hmH*hmW),
		shape: heatmapShape(),
	})
	det := NewWithDetectors(heatmap, NewContourDetector(DefaultContourConfig(), safeProfile()))

	outcome := det.DetectCorners(testImage(640, 480))
	assert.Equal(t, KindFallback, outcome.Kind)
	assert.Equal(t, FallbackQuad(640, 480), outcome.Quad)
}
