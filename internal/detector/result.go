// Package detector locates a document's four boundary corners in a frame.
// Two independent detectors produce hypotheses: a learned corner-heatmap
// model and a classical contour pipeline. An arbitration step fuses them.
package detector

import (
	"github.com/schliweb/docscan/internal/geometry"
)

// Kind tags how an Outcome was produced.
type Kind int

const (
	// KindNotFound means no plausible document hypothesis exists.
	KindNotFound Kind = iota
	// KindDocument is a detected document boundary.
	KindDocument
	// KindFallback is the deterministic inset rectangle the contour
	// detector returns when no contour qualifies.
	KindFallback
)

// Outcome is the tagged result of a detection attempt. A missing document
// is a value, not an error.
type Outcome struct {
	Kind Kind
	Quad geometry.Quad
}

// Found wraps a detected boundary.
func Found(q geometry.Quad) Outcome {
	return Outcome{Kind: KindDocument, Quad: q}
}

// NotFound is the absent outcome.
func NotFound() Outcome {
	return Outcome{Kind: KindNotFound}
}

// HasQuad reports whether the outcome carries a usable quadrilateral.
func (o Outcome) HasQuad() bool {
	return o.Kind != KindNotFound
}

// fallbackMargin is the inset of the fallback rectangle from each edge.
const fallbackMargin = 100.0

// FallbackQuad returns the deterministic inset rectangle for a w x h
// frame: 100px in from every edge, or the frame bounds when the frame is
// too small to inset.
func FallbackQuad(w, h int) geometry.Quad {
	mx, my := fallbackMargin, fallbackMargin
	if float64(w) <= 2*mx {
		mx = 0
	}
	if float64(h) <= 2*my {
		my = 0
	}
	fw, fh := float64(w), float64(h)
	return geometry.Quad{
		{X: mx, Y: my},
		{X: fw - mx, Y: my},
		{X: fw - mx, Y: fh - my},
		{X: mx, Y: fh - my},
	}
}

// Fallback wraps the inset rectangle for a w x h frame.
func Fallback(w, h int) Outcome {
	return Outcome{Kind: KindFallback, Quad: FallbackQuad(w, h)}
}

// isFallbackQuad matches q against the exact fallback coordinates for the
// frame. Quads arriving from outside the package lose their tag, so the
// coordinate match is kept alongside the Kind check.
func isFallbackQuad(q geometry.Quad, w, h int) bool {
	return q == FallbackQuad(w, h)
}
