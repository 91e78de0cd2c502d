package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schliweb/docscan/internal/geometry"
)

func rectQuad(x0, y0, x1, y1 float64) geometry.Quad {
	return geometry.Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestArbitrate(t *testing.T) {
	const w, h = 640, 480

	bigContour := rectQuad(50, 50, 590, 430)    // 540x380
	similar := rectQuad(60, 60, 580, 420)       // close to bigContour
	tinyHeatmap := rectQuad(300, 300, 340, 340) // 40x40, under 10% of contour
	hugeHeatmap := rectQuad(10, 10, 630, 470)   // over 115% of contour

	tests := []struct {
		name     string
		heatmap  Outcome
		contour  Outcome
		wantKind Kind
		wantQuad geometry.Quad
	}{
		{
			name:     "both absent",
			heatmap:  NotFound(),
			contour:  NotFound(),
			wantKind: KindNotFound,
		},
		{
			name:     "heatmap absent yields contour",
			heatmap:  NotFound(),
			contour:  Found(bigContour),
			wantKind: KindDocument,
			wantQuad: bigContour,
		},
		{
			name:     "contour absent yields heatmap",
			heatmap:  Found(similar),
			contour:  NotFound(),
			wantKind: KindDocument,
			wantQuad: similar,
		},
		{
			name:     "contour fallback yields heatmap",
			heatmap:  Found(similar),
			contour:  Fallback(w, h),
			wantKind: KindDocument,
			wantQuad: similar,
		},
		{
			name:     "untagged fallback coordinates yield heatmap",
			heatmap:  Found(similar),
			contour:  Found(FallbackQuad(w, h)),
			wantKind: KindDocument,
			wantQuad: similar,
		},
		{
			name:     "tiny heatmap yields contour",
			heatmap:  Found(tinyHeatmap),
			contour:  Found(bigContour),
			wantKind: KindDocument,
			wantQuad: bigContour,
		},
		{
			name:     "oversized heatmap wins",
			heatmap:  Found(hugeHeatmap),
			contour:  Found(bigContour),
			wantKind: KindDocument,
			wantQuad: hugeHeatmap,
		},
		{
			name:     "degenerate contour yields heatmap",
			heatmap:  Found(similar),
			contour:  Found(rectQuad(300, 300, 300, 340)), // zero area
			wantKind: KindDocument,
			wantQuad: similar,
		},
		{
			name:     "comparable areas prefer contour",
			heatmap:  Found(similar),
			contour:  Found(bigContour),
			wantKind: KindDocument,
			wantQuad: bigContour,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Arbitrate(tt.heatmap, tt.contour, w, h)
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantKind != KindNotFound {
				assert.Equal(t, tt.wantQuad.SortCanonical(), got.Quad.SortCanonical())
			}
		})
	}
}

func TestArbitrate_Deterministic(t *testing.T) {
	heatmap := Found(rectQuad(60, 60, 580, 420))
	contour := Found(rectQuad(50, 50, 590, 430))

	first := Arbitrate(heatmap, contour, 640, 480)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Arbitrate(heatmap, contour, 640, 480))
	}
}

func TestArbitrate_ResultIsCanonical(t *testing.T) {
	shuffled := geometry.Quad{{X: 590, Y: 430}, {X: 50, Y: 50}, {X: 50, Y: 430}, {X: 590, Y: 50}}
	got := Arbitrate(NotFound(), Found(shuffled), 640, 480)
	// Rule 1 passes the contour outcome through untouched; canonical
	// ordering is applied on the comparison paths.
	assert.Equal(t, KindDocument, got.Kind)

	both := Arbitrate(Found(shuffled), Found(shuffled), 640, 480)
	assert.Equal(t, both.Quad, both.Quad.SortCanonical())
}
