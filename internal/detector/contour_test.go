package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schliweb/docscan/internal/device"
	"github.com/schliweb/docscan/internal/geometry"
	"github.com/schliweb/docscan/internal/testutil"
)

func safeProfile() device.Profile {
	return device.Profile{SafeMode: true, UseAdaptiveThreshold: false}
}

func TestContourDetector_FindsCenteredSheet(t *testing.T) {
	cfg := testutil.DefaultDocumentConfig()
	cfg.Quad = testutil.CenteredQuad(640, 480, 0.7)
	img := testutil.GenerateDocumentImage(cfg)

	det := NewContourDetector(DefaultContourConfig(), safeProfile())
	outcome := det.Detect(img)

	require.Equal(t, KindDocument, outcome.Kind)
	testutil.AssertQuadNear(t, cfg.Quad.SortCanonical(), outcome.Quad, 8.0)
}

func TestContourDetector_EmptyFrameFallsBack(t *testing.T) {
	img := testImage(640, 480)

	det := NewContourDetector(DefaultContourConfig(), safeProfile())
	outcome := det.Detect(img)

	assert.Equal(t, KindFallback, outcome.Kind)
	assert.Equal(t, FallbackQuad(640, 480), outcome.Quad)
}

func TestContourDetector_SmallSheetFallsBack(t *testing.T) {
	// A sheet under the 20% area floor must not qualify.
	cfg := testutil.DefaultDocumentConfig()
	cfg.Quad = testutil.CenteredQuad(640, 480, 0.3) // 9% of the frame
	img := testutil.GenerateDocumentImage(cfg)

	det := NewContourDetector(DefaultContourConfig(), safeProfile())
	outcome := det.Detect(img)

	assert.Equal(t, KindFallback, outcome.Kind)
}

func TestContourDetector_RejectsExtremeAspect(t *testing.T) {
	// A banner-shaped region violates the aspect gate even when large.
	cfg := testutil.DefaultDocumentConfig()
	cfg.Quad = geometry.Quad{
		{X: 10, Y: 170}, {X: 630, Y: 170}, {X: 630, Y: 310}, {X: 10, Y: 310},
	}
	img := testutil.GenerateDocumentImage(cfg)

	det := NewContourDetector(DefaultContourConfig(), safeProfile())
	outcome := det.Detect(img)

	assert.Equal(t, KindFallback, outcome.Kind)
}

func TestContourDetector_NilImage(t *testing.T) {
	det := NewContourDetector(DefaultContourConfig(), safeProfile())
	assert.Equal(t, KindNotFound, det.Detect(nil).Kind)
}

func TestContourDetector_SkewedSheet(t *testing.T) {
	cfg := testutil.DefaultDocumentConfig()
	cfg.Quad = geometry.Quad{
		{X: 140, Y: 60}, {X: 520, Y: 90}, {X: 500, Y: 420}, {X: 110, Y: 390},
	}
	img := testutil.GenerateDocumentImage(cfg)

	det := NewContourDetector(DefaultContourConfig(), safeProfile())
	outcome := det.Detect(img)

	require.Equal(t, KindDocument, outcome.Kind)
	testutil.AssertQuadNear(t, cfg.Quad.SortCanonical(), outcome.Quad, 12.0)
}
