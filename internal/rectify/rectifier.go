// Package rectify maps a detected document quadrilateral onto an
// axis-aligned rectangle, undoing the capture perspective.
package rectify

import (
	"image"
	"log/slog"

	"github.com/schliweb/docscan/internal/device"
	"github.com/schliweb/docscan/internal/geometry"
)

// Rectifier warps a source image so the given quadrilateral fills an
// axis-aligned target rectangle. It holds no mutable state beyond the
// read-only device profile and is safe for concurrent use.
type Rectifier struct {
	profile device.Profile
}

// New builds a rectifier gated by the device profile.
func New(profile device.Profile) *Rectifier {
	return &Rectifier{profile: profile}
}

// Rectify warps src so quad maps onto a targetW x targetH rectangle.
// Non-positive target dimensions default to the source's own size.
// Rectification failure must never abort the caller's flow: on any
// failure the original image is returned unchanged.
func (r *Rectifier) Rectify(src image.Image, quad geometry.Quad, targetW, targetH int) image.Image {
	if src == nil {
		return nil
	}
	bounds := src.Bounds()
	if targetW <= 0 {
		targetW = bounds.Dx()
	}
	if targetH <= 0 {
		targetH = bounds.Dy()
	}
	if targetW <= 0 || targetH <= 0 {
		slog.Warn("rectify skipped: empty target size")
		return src
	}
	if !quad.Valid() {
		slog.Warn("rectify skipped: degenerate quad")
		return src
	}

	var out image.Image
	if r.profile.SafeMode {
		// The affine approximation trades some geometric fidelity for
		// staying off crash-prone native warp paths.
		out = warpAffine(src, quad, targetW, targetH)
	} else {
		out = warpPerspective(src, quad, targetW, targetH)
	}
	if out == nil {
		slog.Warn("perspective warp failed, returning original image",
			"safe_mode", r.profile.SafeMode)
		return src
	}
	return out
}
