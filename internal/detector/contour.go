package detector

import (
	"image"
	"log/slog"

	"github.com/schliweb/docscan/internal/device"
	"github.com/schliweb/docscan/internal/geometry"
	"github.com/schliweb/docscan/internal/imgproc"
)

// ContourConfig holds configuration for the geometric contour detector.
type ContourConfig struct {
	MorphKernelSize    int     // Structuring element side for closing (default: 15)
	EdgeLowThreshold   int     // Weak edge gradient threshold (default: 50)
	EdgeHighThreshold  int     // Strong edge gradient threshold (default: 150)
	MinAreaRatio       float64 // Minimum contour area as fraction of image area (default: 0.20)
	ApproxEpsilonRatio float64 // Polygon approximation tolerance as fraction of perimeter (default: 0.02)
	MinAspect          float64 // Minimum height/width ratio (default: 0.5)
	MaxAspect          float64 // Maximum height/width ratio (default: 2.5)
	AdaptiveWindow     int     // Adaptive threshold window (default: 31)
	AdaptiveOffset     int     // Adaptive threshold mean offset (default: 10)
	DebugDir           string  // If non-empty, dump intermediate rasters here
}

// DefaultContourConfig returns the defaults tuned for document pages.
func DefaultContourConfig() ContourConfig {
	return ContourConfig{
		MorphKernelSize:    15,
		EdgeLowThreshold:   50,
		EdgeHighThreshold:  150,
		MinAreaRatio:       0.20,
		ApproxEpsilonRatio: 0.02,
		MinAspect:          0.5,
		MaxAspect:          2.5,
		AdaptiveWindow:     31,
		AdaptiveOffset:     10,
		DebugDir:           "",
	}
}

// ContourDetector finds the most document-like convex quadrilateral via a
// classical threshold/morphology/edge/contour pipeline. It is stateless
// and safe for concurrent use.
type ContourDetector struct {
	cfg     ContourConfig
	profile device.Profile
}

// NewContourDetector builds a detector gated by the device profile.
func NewContourDetector(cfg ContourConfig, profile device.Profile) *ContourDetector {
	if cfg.MorphKernelSize <= 0 {
		cfg = DefaultContourConfig()
	}
	return &ContourDetector{cfg: cfg, profile: profile}
}

// Detect runs the contour pipeline. When no candidate qualifies it returns
// the deterministic fallback rectangle, tagged KindFallback so downstream
// consumers can tell it from a genuine detection.
func (d *ContourDetector) Detect(img image.Image) Outcome {
	if img == nil {
		return NotFound()
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return NotFound()
	}

	gray := imgproc.FromImage(img)
	blurred := imgproc.GaussianBlur(gray)

	// Adaptive thresholding has triggered illegal-instruction crashes on
	// some CPUs; the profile gate must keep it off there.
	var binary *imgproc.Gray
	if d.profile.UseAdaptiveThreshold {
		binary = imgproc.AdaptiveThreshold(blurred, d.cfg.AdaptiveWindow, d.cfg.AdaptiveOffset)
	} else {
		binary = imgproc.OtsuThreshold(blurred)
	}
	d.dumpDebug("threshold", binary)

	closed := imgproc.Close(binary, d.cfg.MorphKernelSize)
	d.dumpDebug("morph", closed)

	edges := imgproc.EdgeMap(closed, d.cfg.EdgeLowThreshold, d.cfg.EdgeHighThreshold)
	d.dumpDebug("edges", edges)

	contours := imgproc.FindContours(edges)

	best, ok := d.selectBestQuad(contours, w, h)
	if !ok {
		slog.Debug("no suitable document contour, returning fallback rectangle",
			"contours", len(contours))
		return Fallback(w, h)
	}
	return Found(best)
}

// selectBestQuad filters contours down to convex 4-point candidates with a
// document-like aspect ratio and keeps the largest by area.
func (d *ContourDetector) selectBestQuad(contours [][]geometry.Point, w, h int) (geometry.Quad, bool) {
	imgArea := float64(w) * float64(h)
	var best geometry.Quad
	bestArea := 0.0
	found := false

	for _, contour := range contours {
		area := geometry.PolygonArea(contour)
		if area < d.cfg.MinAreaRatio*imgArea {
			continue
		}

		epsilon := d.cfg.ApproxEpsilonRatio * geometry.PolygonPerimeter(contour)
		approx := geometry.SimplifyPolygon(contour, epsilon)
		if len(approx) != 4 || !geometry.IsConvexPolygon(approx) {
			continue
		}

		quad, _ := geometry.QuadFromPoints(approx)
		quad = quad.SortCanonical()

		avgW := quad.AvgWidth()
		avgH := quad.AvgHeight()
		if avgW <= 0 {
			continue
		}
		aspect := avgH / avgW
		if aspect <= d.cfg.MinAspect || aspect >= d.cfg.MaxAspect {
			continue
		}

		if area > bestArea {
			bestArea = area
			best = quad
			found = true
		}
	}
	return best, found
}
